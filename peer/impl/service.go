package impl

import (
	"errors"
	"sync/atomic"
	"time"

	"go.dedis.ch/incidents/transport"
	"golang.org/x/xerrors"
)

// starts the node
func (n *node) Start() error {
	if !atomic.CompareAndSwapUint32(&n.run, 0, 1) {
		return xerrors.Errorf("node %s already started", n.GetAddress())
	}

	// start listening on incoming messages
	n.wg.Add(1)
	go n.listeningRoutine()

	if n.conf.IncidentInterval > 0 {
		n.wg.Add(1)
		go n.incidentMechanism()
	}

	return nil
}

// stops the node
func (n *node) Stop() error {
	// indicate that the node is not running anymore
	atomic.StoreUint32(&n.run, 0)
	n.stopOnce.Do(func() {
		close(n.stopChannel)
	})

	// pending timers must not fire on a stopped node
	n.reporter.close()
	n.confirmer.close()

	// wait for all routines to be finished
	n.wg.Wait()
	return nil
}

func (n *node) isRunning() bool {
	return atomic.LoadUint32(&n.run) == 1
}

// listens to incoming messages as long as the node is running
func (n *node) listeningRoutine() {
	defer n.wg.Done()

	for n.isRunning() {
		// receive the packet
		pkt, err := n.soc.Recv(time.Second * 1)

		// if error different from timeout, stop the node
		if errors.Is(err, transport.TimeoutError(0)) {
			continue
		} else if err != nil {
			atomic.StoreUint32(&n.run, 0)
			n.log.Err(err).Msg("failed to receive packet")
			break
		}

		// packets are not relayed, only those addressed to the node count
		myAddr := n.soc.GetAddress()
		if pkt.Header.Destination != myAddr {
			n.log.Debug().Msgf("dropping packet for %s", pkt.Header.Destination)
			continue
		}

		// a failing packet is dropped, the node keeps running
		err = n.reg.ProcessPacket(pkt)
		if err != nil {
			n.log.Err(err).Msg("failed to process packet")
		}
	}
}
