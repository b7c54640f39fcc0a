package types

// Message defines the type of message that can be marshalled/unmarshalled over
// the network. A message whose payload is not JSON implements
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler.
type Message interface {
	NewEmpty() Message
	Name() string
	String() string
	HTML() string
}
