package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hoppxi/clickdim/internal/controller"
	"github.com/hoppxi/clickdim/pkg/gamma"
)

const DefaultShutdownTimeout = 3 * time.Second

// Controller is the part of the brightness controller driven over IPC.
type Controller interface {
	Click() bool
	Shutdown(ctx context.Context) error
	Status() controller.Status
}

// Hardware is the gamma device as seen by the manager.
type Hardware interface {
	Brightness() (gamma.Ramp, error)
	Stats() gamma.Stats
	Close() error
}

type AppManager struct {
	mu              sync.Mutex
	stops           []chan struct{}
	wg              sync.WaitGroup
	ctrl            Controller
	hw              Hardware
	shutdownTimeout time.Duration
	socketPath      string
	listener        net.Listener

	stopOnce sync.Once
	stopErr  error
	doneOnce sync.Once
	done     chan struct{}
}

var Manage = New("")

// New returns a manager serving IPC on socketPath, or on the per-user
// runtime socket when socketPath is empty.
func New(socketPath string) *AppManager {
	if socketPath == "" {
		socketPath = getSocketPath()
	}
	return &AppManager{
		socketPath:      socketPath,
		shutdownTimeout: DefaultShutdownTimeout,
		done:            make(chan struct{}),
	}
}

func getSocketPath() string {
	var baseDir string
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		baseDir = runtimeDir
	} else {
		baseDir = os.TempDir()
	}

	socketDir := filepath.Join(baseDir, "clickdim")
	if err := os.MkdirAll(socketDir, 0o700); err != nil {
		return filepath.Join(os.TempDir(), fmt.Sprintf("clickdim-%d.sock", os.Getuid()))
	}
	return filepath.Join(socketDir, "socket.sock")
}

func (m *AppManager) SocketPath() string {
	return m.socketPath
}

// Attach hands the controller and its device to the manager. StopAll shuts
// the controller down within timeout and then closes the device.
func (m *AppManager) Attach(ctrl Controller, hw Hardware, timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctrl = ctrl
	m.hw = hw
	if timeout > 0 {
		m.shutdownTimeout = timeout
	}
}

func (m *AppManager) attached() (Controller, Hardware) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctrl, m.hw
}

// StartIPCServer binds the socket and serves it in the background.
func (m *AppManager) StartIPCServer() error {
	_ = os.Remove(m.socketPath)

	listener, err := net.Listen("unix", m.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", m.socketPath, err)
	}

	m.mu.Lock()
	m.listener = listener
	m.mu.Unlock()

	log.Infof("IPC server listening on %s", m.socketPath)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				log.Debugf("IPC accept: %v", err)
				continue
			}
			go m.handleConnection(conn)
		}
	}()
	return nil
}

func (m *AppManager) handleConnection(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		return
	}

	command := strings.ToUpper(strings.TrimSpace(string(buf[:n])))
	ctrl, hw := m.attached()

	switch {
	case command == "STOP":
		log.Info("Received STOP via IPC. Restoring brightness...")
		// The reply goes out before Done closes; start exits on Done.
		defer m.markDone()
		if err := m.stop(); err != nil {
			_, _ = fmt.Fprintf(conn, "ERR: %v", err)
			return
		}
		_, _ = conn.Write([]byte("OK: brightness restored"))

	case ctrl == nil:
		_, _ = conn.Write([]byte("ERR: daemon is still starting"))

	case command == "STATUS":
		_, _ = conn.Write([]byte("OK: " + statusLine(ctrl.Status(), hw)))

	case command == "CLICK":
		if !ctrl.Click() {
			_, _ = conn.Write([]byte("ERR: shutting down"))
			return
		}
		_, _ = conn.Write([]byte("OK: click"))

	default:
		_, _ = conn.Write([]byte("ERR: unknown command"))
	}
}

func statusLine(s controller.Status, hw Hardware) string {
	fields := []string{
		"state=" + s.StateName,
		"mode=" + s.Mode,
		fmt.Sprintf("runs=%d", s.Runs),
	}
	if s.RunID != "" {
		fields = append(fields, "run="+s.RunID)
	}
	if hw == nil {
		return strings.Join(fields, " ")
	}

	level := "unknown"
	if ramp, err := hw.Brightness(); err == nil {
		if l, ok := ramp.Level(); ok {
			level = fmt.Sprint(l)
		} else {
			level = "custom"
		}
	}
	stats := hw.Stats()
	fields = append(fields,
		"level="+level,
		fmt.Sprintf("writes=%d", stats.Writes),
		fmt.Sprintf("rejected=%d", stats.Rejected),
	)
	return strings.Join(fields, " ")
}

func (m *AppManager) StartWatcher(f func(stop <-chan struct{})) {
	stop := make(chan struct{})
	m.mu.Lock()
	m.stops = append(m.stops, stop)
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Errorf("Watcher panic: %v", r)
					}
				}()
				f(stop)
			}()

			select {
			case <-stop:
				return
			case <-time.After(2 * time.Second):
				log.Debug("Restarting watcher...")
			}
		}
	}()
}

// StopAll stops the watchers, restores brightness, closes the device and
// removes the socket, then closes Done. Only the first call does the work;
// every call returns its result. StopAll does not wait for the watchers,
// since a watcher may be the caller.
func (m *AppManager) StopAll() error {
	err := m.stop()
	m.markDone()
	return err
}

func (m *AppManager) stop() error {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		stops := m.stops
		m.stops = nil
		listener := m.listener
		ctrl, hw := m.ctrl, m.hw
		timeout := m.shutdownTimeout
		m.mu.Unlock()

		for _, s := range stops {
			close(s)
		}

		if ctrl != nil {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			if err := ctrl.Shutdown(ctx); err != nil {
				m.stopErr = err
				log.Warn(m.stopErr)
			}
			cancel()
		}
		if hw != nil {
			if err := hw.Close(); err != nil {
				log.Debugf("close display: %v", err)
			}
		}
		if listener != nil {
			_ = listener.Close()
			_ = os.Remove(m.socketPath)
		}
	})
	return m.stopErr
}

func (m *AppManager) markDone() {
	m.doneOnce.Do(func() { close(m.done) })
}

// Done is closed once StopAll has finished.
func (m *AppManager) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until every watcher has returned.
func (m *AppManager) Wait() {
	m.wg.Wait()
}

func (m *AppManager) ConnectIPC() (net.Conn, error) {
	return net.DialTimeout("unix", m.socketPath, 500*time.Millisecond)
}

func (m *AppManager) SendIPCCommand(cmd string) (string, error) {
	conn, err := m.ConnectIPC()
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return "", err
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}

	return string(buf[:n]), nil
}
