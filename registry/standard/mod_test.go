package standard

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/incidents/transport"
	"go.dedis.ch/incidents/types"
)

func noticePacket(t *testing.T, r *Registry, size int) transport.Packet {
	msg, err := r.MarshalMessage(types.IncidentNoticeMessage{Filler: make([]byte, size)})
	require.NoError(t, err)

	header := transport.NewHeader("127.0.0.1:1", "127.0.0.1:1", "127.0.0.1:2", 0)

	return transport.Packet{Header: &header, Msg: &msg}
}

// Every packet goes to the callback of its type, and the registry keeps
// nothing once the callback returned.
func Test_Registry_Dispatch_Without_Retention(t *testing.T) {
	r := NewRegistry()

	received := 0
	r.RegisterMessageCallback(types.IncidentNoticeMessage{}, func(msg types.Message, _ transport.Packet) error {
		notice, ok := msg.(*types.IncidentNoticeMessage)
		require.True(t, ok)
		require.Len(t, notice.Filler, types.NoticeSize)

		received++
		return nil
	})

	pkt := noticePacket(t, r, types.NoticeSize)

	for i := 0; i < 1000; i++ {
		require.NoError(t, r.ProcessPacket(pkt))
	}

	require.Equal(t, 1000, received)
	require.Len(t, r.handlers, 1)
	require.Len(t, r.templates, 1)
}

func Test_Registry_Process_Errors(t *testing.T) {
	r := NewRegistry()

	err := r.ProcessPacket(transport.Packet{})
	require.Error(t, err)

	// no callback registered yet
	err = r.ProcessPacket(noticePacket(t, r, 1))
	require.Error(t, err)

	r.RegisterMessageCallback(types.ConfirmationMessage{}, func(types.Message, transport.Packet) error {
		return nil
	})

	// a confirmation without separator
	msg := transport.Message{Type: types.ConfirmationMessage{}.Name(), Payload: []byte("0.5")}
	err = r.ProcessPacket(transport.Packet{Msg: &msg})
	require.Error(t, err)
	require.Contains(t, err.Error(), types.ErrMalformedConfirmation.Error())
}
