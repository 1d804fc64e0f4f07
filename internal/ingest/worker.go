// Package ingest implements the Receive Workers (spec.md §4.6): one UDP
// listener per logical CPU, all bound to the same port via SO_REUSEPORT,
// handing each datagram to the Dispatcher and the result to the Batch
// Coordinator.
package ingest

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/Gi-z/csi-ingestd/internal/batch"
	"github.com/Gi-z/csi-ingestd/internal/dispatch"
	"github.com/Gi-z/csi-ingestd/pkg/log"
)

// maxDatagramSize is MAX from spec.md §4.6.
const maxDatagramSize = 2000

// ErrRecv wraps any error returned from a worker's recv loop. Per spec.md
// §7 (SocketRecvFailure), this is fatal to that worker.
type ErrRecv struct {
	Worker int
	Err    error
}

func (e *ErrRecv) Error() string {
	return fmt.Sprintf("[INGEST]> worker %d: recv: %v", e.Worker, e.Err)
}

func (e *ErrRecv) Unwrap() error { return e.Err }

// listenConfig sets SO_REUSEADDR and SO_REUSEPORT on the listening socket
// before bind, so every worker can bind the same (address, port) and let
// the kernel load-balance datagrams across them (spec.md §4.6 step 1).
var listenConfig = net.ListenConfig{
	Control: func(network, address string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			if sockErr != nil {
				return
			}
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
		})
		if err != nil {
			return err
		}
		return sockErr
	},
}

// NumWorkers is num_workers from spec.md §4.6: one per logical CPU.
func NumWorkers() int {
	return runtime.NumCPU()
}

// Run opens NumWorkers UDP listeners on addr and blocks each in its own
// goroutine, dispatching datagrams until ctx is cancelled or a worker's
// recv_from call fails. It returns the first ErrRecv encountered; a
// worker failure does not stop the others (spec.md §4.6 step 3 describes
// the per-worker failure as fatal to that worker, not the process — the
// caller decides whether to treat it as fatal to the whole service).
func Run(ctx context.Context, addr string, d *dispatch.Dispatcher, coord *batch.Coordinator) error {
	n := NumWorkers()
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		conn, err := listenConfig.ListenPacket(ctx, "udp", addr)
		if err != nil {
			return fmt.Errorf("[INGEST]> worker %d bind: %w", i, err)
		}
		go runWorker(ctx, i, conn.(*net.UDPConn), d, coord, errs)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errs:
		return err
	}
}

func runWorker(ctx context.Context, id int, conn *net.UDPConn, d *dispatch.Dispatcher, coord *batch.Coordinator, errs chan<- error) {
	defer conn.Close()

	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case errs <- &ErrRecv{Worker: id, Err: err}:
			default:
			}
			return
		}

		recs, err := d.Dispatch(buf[:n])
		if err != nil {
			log.Warn("[INGEST]> worker ", id, ": ", err)
			continue
		}
		coord.Append(recs)
	}
}
