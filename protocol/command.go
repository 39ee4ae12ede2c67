package protocol

const (
	commandReserved  = 8
	CommandFrameSize = HeaderSize + commandReserved

	// Name console expects from a PC client.
	ClientDeviceName = "PC2000"
)

// Command is an outgoing request frame. Construct with Search or Query.
type Command struct {
	header RecordHeader
}

// Search is broadcast to make console connect back.
func Search() Command {
	return Command{header: RecordHeader{
		DeviceName: ClientDeviceName,
		Command:    CommandSearch,
		Argument:   ArgumentNone,
	}}
}

// Query asks connected console for current readings.
func Query() Command { return read(ArgumentNowRecord) }

func read(arg ArgumentKind) Command {
	return Command{header: RecordHeader{
		DeviceName: ClientDeviceName,
		Command:    CommandRead,
		Argument:   arg,
	}}
}

func (c Command) Header() RecordHeader { return c.header }
func (c Command) String() string       { return c.header.String() }

// Encode returns header followed by zero reserved bytes.
func (c Command) Encode() ([CommandFrameSize]byte, error) {
	var b [CommandFrameSize]byte
	err := c.header.encodeTo(b[:HeaderSize])
	return b, err
}

func (c Command) Bytes() ([]byte, error) {
	b, err := c.Encode()
	if err != nil {
		return nil, err
	}
	return b[:], nil
}
