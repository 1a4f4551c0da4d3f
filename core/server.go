package core

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/juju/ratelimit"
	gossh "golang.org/x/crypto/ssh"

	"github.com/josephlewis42/clam/commands"
	"github.com/josephlewis42/clam/core/config"
	"github.com/josephlewis42/clam/core/logger"
	"github.com/josephlewis42/clam/core/ttylog"
	"github.com/josephlewis42/clam/core/vos"
)

// Server hosts one independent shell session per SSH connection. All sessions
// share a sandboxed filesystem with the in-process programs installed.
type Server struct {
	configuration *config.Configuration
	sharedOS      *vos.SharedOS
	logger        *logger.Logger
	sshServer     *ssh.Server
	shellOptions  commands.ShellOptions
}

// NewServer creates a server from the configuration, session events are
// written to eventLog.
func NewServer(configuration *config.Configuration, eventLog io.Writer) (*Server, error) {
	sharedOS, err := NewSandbox(configuration.Hostname)
	if err != nil {
		return nil, fmt.Errorf("creating sandbox: %w", err)
	}

	signer, err := configuration.HostSigner()
	if err != nil {
		return nil, fmt.Errorf("loading host key: %w", err)
	}

	server := &Server{
		configuration: configuration,
		sharedOS:      sharedOS,
		logger:        logger.NewJSONLinesLogRecorder(eventLog),
		shellOptions: commands.ShellOptions{
			Prompt:    configuration.Prompt,
			Color:     configuration.Color,
			ASTFormat: configuration.ASTFormat,
			Trace:     configuration.Trace,
		},
	}

	server.sshServer = &ssh.Server{
		Addr:    fmt.Sprintf(":%d", configuration.SSHPort),
		Handler: server.handleSession,
		PasswordHandler: func(ctx ssh.Context, password string) bool {
			return configuration.CheckPassword(password)
		},
	}
	server.sshServer.AddHostKey(signer)

	if banner := configuration.SSHBanner; banner != "" {
		server.sshServer.ServerConfigCallback = func(ctx ssh.Context) *gossh.ServerConfig {
			return &gossh.ServerConfig{
				BannerCallback: func(gossh.ConnMetadata) string {
					return banner
				},
			}
		}
	}

	return server, nil
}

func (s *Server) handleSession(sess ssh.Session) {
	status, err := s.HandleConnection(sess)
	if err != nil {
		log.Printf("- Session from %s failed: %v", sess.RemoteAddr(), err)
		fmt.Fprintln(sess.Stderr(), "internal error")
		status = 1
	}

	if err := sess.Exit(status); err != nil {
		log.Printf("- Closing session from %s: %v", sess.RemoteAddr(), err)
	}
}

// HandleConnection runs a shell for the session and returns its exit status.
// A command sent by the client is run with sh -c, otherwise the shell is
// interactive.
func (s *Server) HandleConnection(sess ssh.Session) (int, error) {
	sessionLogger := s.logger.NewSession()
	s.record(sessionLogger, logger.SessionStart(sess.User(), sess.RemoteAddr().String()))

	if err := makeHome(s.sharedOS.FS(), sess.User()); err != nil {
		return 1, err
	}

	ptyInfo, winch, isPTY := sess.Pty()
	pty := vos.PTY{
		Width:  ptyInfo.Window.Width,
		Height: ptyInfo.Window.Height,
		Term:   ptyInfo.Term,
		IsPTY:  isPTY,
	}

	// Start logging the terminal interactions.
	logFileName := fmt.Sprintf("%s-%s.%s", time.Now().UTC().Format("20060102T150405Z"), sessionLogger.SessionID(), ttylog.AsciicastFileExt)
	logFd, err := s.configuration.CreateSessionLog(logFileName)
	if err != nil {
		return 1, fmt.Errorf("creating session log: %w", err)
	}
	defer logFd.Close()
	s.record(sessionLogger, logger.OpenTTYLog(logFileName))

	header := ttylog.DefaultAsciicastHeader()
	if isPTY {
		header.Width = pty.Width
		header.Height = pty.Height
		header.Env["TERM"] = pty.Term
	}

	argv := []string{"sh"}
	if raw := sess.RawCommand(); raw != "" {
		argv = []string{"sh", "-c", raw}
	}

	session, err := NewSession(s.sharedOS, SessionConfig{
		User:       sess.User(),
		Argv:       argv,
		Path:       s.configuration.Path,
		ExtraEnv:   sess.Environ(),
		IO:         s.sessionIO(sess, isPTY),
		PTY:        pty,
		Events:     sessionLogger,
		Recording:  ttylog.NewAsciicastLogSink(logFd, header),
		PrivateTmp: true,
		Shell:      s.shellOptions,
	})
	if err != nil {
		return 1, err
	}

	// Watch for window changes.
	go func() {
		for {
			select {
			case <-sess.Context().Done():
				return
			case window, ok := <-winch:
				if !ok {
					return
				}
				session.SetPTY(vos.PTY{
					Width:  window.Width,
					Height: window.Height,
					Term:   ptyInfo.Term,
					IsPTY:  isPTY,
				})
			}
		}
	}()

	return session.Run(), nil
}

// sessionIO adapts the SSH channel to the standard streams. Terminals get
// CRLF line endings on a single stream, output is rate limited if
// configured.
func (s *Server) sessionIO(sess ssh.Session, isPTY bool) vos.VIO {
	stdout, stderr := io.Writer(sess), io.Writer(sess.Stderr())
	if isPTY {
		stdout = &crlfWriter{w: sess}
		stderr = stdout
	}

	if rate := s.configuration.SSHOutputRate; rate > 0 {
		bucket := ratelimit.NewBucketWithRate(float64(rate), rate)
		stdout = ratelimit.Writer(stdout, bucket)
		stderr = ratelimit.Writer(stderr, bucket)
	}

	return vos.NewVIOAdapter(sess, stdout, stderr)
}

func (s *Server) record(sessionLogger *logger.SessionLogger, event logger.Event) {
	if err := sessionLogger.Record(event); err != nil {
		log.Printf("- Recording %s: %v", event.Type, err)
	}
}

// Serve accepts connections on l until the server is shut down.
func (s *Server) Serve(l net.Listener) error {
	return s.sshServer.Serve(l)
}

// ListenAndServe listens on the configured SSH port.
func (s *Server) ListenAndServe() error {
	log.Printf("- Starting SSH server on %s\n", s.sshServer.Addr)
	return s.sshServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for sessions to end.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.sshServer.Shutdown(ctx)
}

// crlfWriter converts bare line feeds to CRLF, a remote terminal has no line
// discipline to do it.
type crlfWriter struct {
	w    io.Writer
	prev byte
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)+8)
	for _, b := range p {
		if b == '\n' && c.prev != '\r' {
			out = append(out, '\r')
		}
		out = append(out, b)
		c.prev = b
	}

	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
