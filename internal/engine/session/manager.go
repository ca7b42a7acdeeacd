// Package session drives the remote build session lifecycle: provision a
// host and an ephemeral credential, stage inputs, bootstrap, execute the
// build driver, collect results, and always tear everything back down.
package session

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.trai.ch/zerr"

	"go.pkgforge.dev/rebake/internal/core/domain"
	"go.pkgforge.dev/rebake/internal/core/ports"
)

// Options carries everything a session needs. The manager reads no ambient
// environment; the caller resolves configuration before constructing it.
type Options struct {
	// Host pins the session to one discovered host by name. Required when
	// discovery reports more than one candidate.
	Host       string
	RemoteUser string

	RecipeSetPath string
	LedgerPath    string
	ReceiptsDir   string
	DriverBinPath string

	BootstrapCmd    []string
	KeyInstallCmd   []string
	KeyRevokeCmd    []string
	PasswordCopyCmd []string

	// AllowEnv is propagated verbatim into the remote driver's environment
	// through the RemoteCommand quoting boundary.
	AllowEnv map[string]string

	RetryAttempts int
	RetryDelay    time.Duration

	// KeyDir is where the ephemeral keypair is written. Defaults to the
	// system temp directory.
	KeyDir string
}

// Manager runs one remote build session end to end. A phase failure is
// fail-fast: later phases are skipped, but cleanup always runs.
type Manager struct {
	opts     Options
	executor ports.Executor
	hosts    ports.HostLister
	locks    *HostLocks
	logger   ports.Logger
}

// NewManager creates a session Manager.
func NewManager(opts Options, executor ports.Executor, hosts ports.HostLister, locks *HostLocks, logger ports.Logger) *Manager {
	if opts.KeyDir == "" {
		opts.KeyDir = os.TempDir()
	}
	return &Manager{opts: opts, executor: executor, hosts: hosts, locks: locks, logger: logger}
}

// Run executes the full session lifecycle and returns the session record.
// The record is returned even on error so callers can inspect per-phase
// results.
func (m *Manager) Run(ctx context.Context) (*domain.BuildSession, error) {
	id := fmt.Sprintf("rebake-%d-%d", os.Getpid(), time.Now().Unix())
	session := &domain.BuildSession{Phase: domain.PhaseInit, StartTime: time.Now()}

	host, err := m.resolveHost(ctx)
	if err != nil {
		session.Phase = domain.PhaseFailed
		return session, err
	}
	session.Host = host

	release, err := m.locks.Acquire(ctx, host.Name)
	if err != nil {
		session.Phase = domain.PhaseFailed
		return session, zerr.Wrap(err, "failed to acquire host lock")
	}
	defer release()

	run := &sessionRun{
		manager:   m,
		session:   session,
		target:    m.opts.RemoteUser + "@" + host.Address,
		keyPath:   filepath.Join(m.opts.KeyDir, id+"_ed25519"),
		remoteDir: "/tmp/" + id,
	}
	session.CredentialHandle = run.keyPath

	// Cleanup runs on every exit path, success or failure, and its own
	// failures never replace the session outcome.
	defer run.cleanup(ctx)

	if err := run.phase(ctx, domain.PhaseKeyProvisioned, domain.ErrCredential, run.provisionKey); err != nil {
		return session, err
	}
	if err := run.phase(ctx, domain.PhaseStaged, domain.ErrTransfer, run.stage); err != nil {
		return session, err
	}
	if err := run.phase(ctx, domain.PhaseBootstrapped, domain.ErrRemoteExecution, run.bootstrap); err != nil {
		return session, err
	}
	if err := run.phase(ctx, domain.PhaseExecuting, domain.ErrRemoteExecution, run.execute); err != nil {
		return session, err
	}
	if err := run.phase(ctx, domain.PhaseCollected, domain.ErrTransfer, run.collect); err != nil {
		return session, err
	}
	return session, nil
}

// resolveHost discovers build hosts with a bounded retry budget and narrows
// the result to exactly one target.
func (m *Manager) resolveHost(ctx context.Context) (domain.HostDescriptor, error) {
	attempts := m.opts.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var hosts []domain.HostDescriptor
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		hosts, err = m.hosts.ListHosts(ctx)
		if err == nil && len(hosts) > 0 {
			break
		}
		if attempt == attempts {
			break
		}
		m.logger.Warn("host discovery returned nothing, retrying",
			"attempt", attempt, "of", attempts, "error", err)
		select {
		case <-ctx.Done():
			return domain.HostDescriptor{}, ctx.Err()
		case <-time.After(m.opts.RetryDelay):
		}
	}
	if err != nil {
		return domain.HostDescriptor{}, zerr.Wrap(domain.ErrProvisioning, err.Error())
	}

	switch {
	case len(hosts) == 0:
		return domain.HostDescriptor{}, zerr.Wrap(domain.ErrProvisioning, "no build host discovered")
	case len(hosts) == 1:
		return hosts[0], nil
	}

	if m.opts.Host == "" {
		return domain.HostDescriptor{}, zerr.With(
			zerr.Wrap(domain.ErrProvisioning, "multiple hosts discovered and none pinned"),
			"count", len(hosts))
	}
	for _, h := range hosts {
		if h.Name == m.opts.Host {
			return h, nil
		}
	}
	return domain.HostDescriptor{}, zerr.With(
		zerr.Wrap(domain.ErrProvisioning, "pinned host not among discovered hosts"),
		"host", m.opts.Host)
}

// sessionRun is the per-invocation working state shared by the phase funcs.
type sessionRun struct {
	manager   *Manager
	session   *domain.BuildSession
	target    string
	keyPath   string
	remoteDir string
}

// phase runs fn, records its result on the session, and maps a failure to
// the phase's error class. On success the session advances to p.
func (r *sessionRun) phase(ctx context.Context, p domain.SessionPhase, class error, fn func(context.Context) (int, error)) error {
	start := time.Now()
	code, err := fn(ctx)
	result := domain.PhaseResult{Phase: p, ExitCode: code, Err: err, Duration: time.Since(start)}
	r.session.PhaseResults = append(r.session.PhaseResults, result)

	if result.Failed() {
		r.session.Phase = domain.PhaseFailed
		wrapped := zerr.With(zerr.Wrap(class, string(p)+" phase failed"), "exit_code", code)
		wrapped = zerr.With(wrapped, "duration", result.Duration)
		if err != nil {
			wrapped = zerr.With(wrapped, "cause", err)
		}
		r.manager.logger.Error(wrapped, "phase", string(p))
		return wrapped
	}

	r.session.Phase = p
	r.manager.logger.Info("session phase complete", "phase", string(p), "duration", result.Duration)
	return nil
}

func (r *sessionRun) provisionKey(ctx context.Context) (int, error) {
	// Stale key material from an aborted session must not survive into
	// this one.
	for _, p := range []string{r.keyPath, r.keyPath + ".pub"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return 0, zerr.Wrap(err, "failed to remove stale key file")
		}
	}

	res, err := r.exec(ctx, "ssh-keygen", "-t", "ed25519", "-N", "", "-q", "-f", r.keyPath)
	if err != nil || res.ExitCode != 0 {
		return res.ExitCode, firstErr(err, "key generation failed", res)
	}

	install := r.manager.opts.KeyInstallCmd
	fallback := r.manager.opts.PasswordCopyCmd
	if len(install) == 0 {
		install, fallback = fallback, nil
	}
	if len(install) == 0 {
		return 0, zerr.New("no key installation command configured")
	}
	args := append(append([]string{}, install[1:]...), "-i", r.keyPath+".pub", r.target)
	res, err = r.exec(ctx, install[0], args...)
	if err == nil && res.ExitCode == 0 {
		return 0, nil
	}
	if len(fallback) == 0 {
		return res.ExitCode, firstErr(err, "key installation failed", res)
	}

	// The preferred installer can fail against hosts that only accept
	// password-based seeding; fall back to the password copy command.
	r.manager.logger.Warn("key installation failed, falling back to password copy",
		"command", install[0], "error", firstErr(err, "key installation failed", res))
	args = append(append([]string{}, fallback[1:]...), "-i", r.keyPath+".pub", r.target)
	res, err = r.exec(ctx, fallback[0], args...)
	if err != nil || res.ExitCode != 0 {
		return res.ExitCode, firstErr(err, "key installation failed", res)
	}
	return 0, nil
}

func (r *sessionRun) stage(ctx context.Context) (int, error) {
	if res, err := r.ssh(ctx, nil, []string{"mkdir", "-p", r.remoteDir}); err != nil || res.ExitCode != 0 {
		return res.ExitCode, firstErr(err, "failed to create remote staging directory", res)
	}

	uploads := []string{r.manager.opts.RecipeSetPath, r.manager.opts.DriverBinPath}
	// A first run has no ledger yet; the remote driver starts empty then.
	if _, err := os.Stat(r.manager.opts.LedgerPath); err == nil {
		uploads = append(uploads, r.manager.opts.LedgerPath)
	}
	for _, local := range uploads {
		res, err := r.scp(ctx, local, r.target+":"+r.remoteDir+"/")
		if err != nil || res.ExitCode != 0 {
			return res.ExitCode, firstErr(err, "failed to stage "+filepath.Base(local), res)
		}
	}
	return 0, nil
}

func (r *sessionRun) bootstrap(ctx context.Context) (int, error) {
	if len(r.manager.opts.BootstrapCmd) == 0 {
		return 0, nil
	}
	res, err := r.ssh(ctx, nil, r.manager.opts.BootstrapCmd)
	if err != nil || res.ExitCode != 0 {
		return res.ExitCode, firstErr(err, "bootstrap failed", res)
	}
	return 0, nil
}

func (r *sessionRun) execute(ctx context.Context) (int, error) {
	env := make(map[string]string, len(r.manager.opts.AllowEnv)+2)
	for k, v := range r.manager.opts.AllowEnv {
		env[k] = v
	}
	env["REBAKE_LEDGER_PATH"] = path.Join(r.remoteDir, filepath.Base(r.manager.opts.LedgerPath))

	argv := []string{
		path.Join(r.remoteDir, filepath.Base(r.manager.opts.DriverBinPath)),
		"--list", path.Join(r.remoteDir, filepath.Base(r.manager.opts.RecipeSetPath)),
		"--cache",
	}
	res, err := r.ssh(ctx, env, argv)
	if err != nil || res.ExitCode != 0 {
		return res.ExitCode, firstErr(err, "remote driver failed", res)
	}
	return 0, nil
}

func (r *sessionRun) collect(ctx context.Context) (int, error) {
	collects := map[string]string{
		path.Join(r.remoteDir, filepath.Base(r.manager.opts.LedgerPath)): r.manager.opts.LedgerPath,
		path.Join(r.remoteDir, "receipts.json"):                          filepath.Join(r.manager.opts.ReceiptsDir, "receipts.json"),
	}
	if err := os.MkdirAll(r.manager.opts.ReceiptsDir, 0o750); err != nil {
		return 0, zerr.Wrap(err, "failed to create receipts directory")
	}
	for remote, local := range collects {
		res, err := r.scp(ctx, r.target+":"+remote, local)
		if err != nil || res.ExitCode != 0 {
			return res.ExitCode, firstErr(err, "failed to collect "+path.Base(remote), res)
		}
	}
	return 0, nil
}

// cleanup tears down the staging directory, revokes the installed
// credential, and deletes the local keypair. Each step is attempted
// regardless of the others; failures are logged and recorded, never
// returned.
func (r *sessionRun) cleanup(ctx context.Context) {
	// Teardown must still run when the session was cancelled; otherwise an
	// interrupted run leaks the staging directory and the installed key.
	ctx = context.WithoutCancel(ctx)

	start := time.Now()
	var firstFailure error

	if res, err := r.ssh(ctx, nil, []string{"rm", "-rf", r.remoteDir}); err != nil || res.ExitCode != 0 {
		firstFailure = firstErr(err, "failed to remove remote staging directory", res)
		r.manager.logger.Warn("remote staging cleanup failed", "dir", r.remoteDir, "error", firstFailure)
	}

	if revoke := r.manager.opts.KeyRevokeCmd; len(revoke) > 0 {
		args := append(append([]string{}, revoke[1:]...), r.target)
		if res, err := r.exec(ctx, revoke[0], args...); err != nil || res.ExitCode != 0 {
			e := firstErr(err, "key revocation failed", res)
			if firstFailure == nil {
				firstFailure = e
			}
			r.manager.logger.Warn("credential revocation failed", "error", e)
		}
	}

	for _, p := range []string{r.keyPath, r.keyPath + ".pub"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstFailure == nil {
				firstFailure = err
			}
			r.manager.logger.Warn("local key removal failed", "path", p, "error", err)
		}
	}

	r.session.PhaseResults = append(r.session.PhaseResults, domain.PhaseResult{
		Phase:    domain.PhaseCleaned,
		Duration: time.Since(start),
	})
	if r.session.Phase != domain.PhaseFailed {
		r.session.Phase = domain.PhaseCleaned
	}
	if firstFailure != nil {
		r.manager.logger.Warn("session cleanup finished with warnings", "error", firstFailure)
	}
}

func (r *sessionRun) exec(ctx context.Context, name string, args ...string) (ports.ExecResult, error) {
	return r.manager.executor.Run(ctx, name, args...)
}

// ssh runs a command on the session host. The command crosses the
// RemoteCommand quoting boundary; nothing else in the session builds remote
// command strings.
func (r *sessionRun) ssh(ctx context.Context, env map[string]string, argv []string) (ports.ExecResult, error) {
	remote, err := RemoteCommand(env, argv)
	if err != nil {
		return ports.ExecResult{}, err
	}
	return r.exec(ctx, "ssh",
		"-i", r.keyPath,
		"-o", "BatchMode=yes",
		"-o", "StrictHostKeyChecking=accept-new",
		r.target, remote)
}

func (r *sessionRun) scp(ctx context.Context, src, dst string) (ports.ExecResult, error) {
	return r.exec(ctx, "scp",
		"-i", r.keyPath,
		"-o", "BatchMode=yes",
		"-o", "StrictHostKeyChecking=accept-new",
		src, dst)
}

// firstErr normalizes a command outcome into one error: the execution error
// when present, otherwise a message carrying the command's output.
func firstErr(err error, msg string, res ports.ExecResult) error {
	if err != nil {
		return zerr.Wrap(err, msg)
	}
	if res.ExitCode == 0 {
		return nil
	}
	return zerr.With(zerr.With(zerr.New(msg), "exit_code", res.ExitCode), "output", res.Output)
}
