package vm

// Object is a heap value: a class pointer plus the native payload carrying
// the object's Go-side state. Payloads are plain Go values; each native
// type provides its own typed extraction helper.
type Object struct {
	class   *Class
	payload any
}

// NewObject allocates an object of the given class. Panics on a nil class;
// every object carries its class from birth.
func NewObject(class *Class, payload any) *Object {
	if class == nil {
		panic("vm: NewObject called with nil class")
	}
	return &Object{class: class, payload: payload}
}

// Class returns the object's class.
func (o *Object) Class() *Class { return o.class }

// Payload returns the native payload.
func (o *Object) Payload() any { return o.payload }
