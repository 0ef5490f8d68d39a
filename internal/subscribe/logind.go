package subscribe

import (
	"sync"
	"syscall"

	"github.com/godbus/dbus/v5"
	log "github.com/sirupsen/logrus"
)

const (
	logindDest      = "org.freedesktop.login1"
	logindPath      = "/org/freedesktop/login1"
	logindManager   = "org.freedesktop.login1.Manager"
	prepareShutdown = "PrepareForShutdown"
)

// PowerEvents follows logind. Shutdown fires once when the system starts
// powering off or rebooting. While the subscription holds a delay
// inhibitor logind waits for Release (or its InhibitDelayMaxSec) before
// going down.
type PowerEvents struct {
	Shutdown <-chan struct{}

	conn      *dbus.Conn
	mu        sync.Mutex
	inhibitor int
}

func SubscribePower(stop <-chan struct{}) (*PowerEvents, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(logindPath),
		dbus.WithMatchInterface(logindManager),
		dbus.WithMatchMember(prepareShutdown),
	); err != nil {
		conn.Close()
		return nil, err
	}

	shutdown := make(chan struct{}, 1)
	p := &PowerEvents{Shutdown: shutdown, conn: conn, inhibitor: -1}
	p.inhibit()

	signals := make(chan *dbus.Signal, 4)
	conn.Signal(signals)

	go func() {
		defer conn.Close()
		defer conn.RemoveSignal(signals)
		for {
			select {
			case <-stop:
				p.Release()
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if preparing(sig) {
					log.Info("subscribe: system is shutting down")
					nonBlock(shutdown)
				}
			}
		}
	}()

	return p, nil
}

func (p *PowerEvents) inhibit() {
	var fd dbus.UnixFD
	err := p.conn.Object(logindDest, logindPath).Call(
		logindManager+".Inhibit", 0,
		"shutdown", "clickdim", "Restoring display gamma", "delay",
	).Store(&fd)
	if err != nil {
		log.Warnf("subscribe: no shutdown inhibitor: %v", err)
		return
	}
	p.mu.Lock()
	p.inhibitor = int(fd)
	p.mu.Unlock()
}

// Release drops the delay inhibitor so logind can continue shutting down.
func (p *PowerEvents) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inhibitor < 0 {
		return
	}
	syscall.Close(p.inhibitor)
	p.inhibitor = -1
}

// preparing reports a PrepareForShutdown(true) signal. logind sends
// false when a pending shutdown is cancelled.
func preparing(sig *dbus.Signal) bool {
	if sig == nil || sig.Name != logindManager+"."+prepareShutdown || len(sig.Body) != 1 {
		return false
	}
	active, ok := sig.Body[0].(bool)
	return ok && active
}

func nonBlock(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
