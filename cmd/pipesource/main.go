package main

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"git.home.luguber.info/inful/pipesource/internal/auth"
	"git.home.luguber.info/inful/pipesource/internal/errs"
	"git.home.luguber.info/inful/pipesource/internal/git"
	"git.home.luguber.info/inful/pipesource/internal/logfields"
	"git.home.luguber.info/inful/pipesource/internal/pipelines"
	"git.home.luguber.info/inful/pipesource/internal/protocol"
	"git.home.luguber.info/inful/pipesource/internal/stage"
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

var CLI struct {
	Destination string `arg:"" help:"Directory to materialize the repository into"`
	Verbose     bool   `short:"v" help:"Enable verbose logging"`
}

// onExit holds cleanup functions that must run even when the process is
// killed mid-acquisition (scratch directory teardown).
var onExit struct {
	sync.Mutex
	fns []func()
}

func registerCleanup(fn func()) {
	onExit.Lock()
	defer onExit.Unlock()
	onExit.fns = append(onExit.fns, fn)
}

func runCleanups() {
	onExit.Lock()
	defer onExit.Unlock()
	for _, fn := range onExit.fns {
		fn()
	}
	onExit.fns = nil
}

func main() {
	kong.Parse(&CLI,
		kong.Name("pipesource"),
		kong.Description("Materialize a git repository and its discovered pipeline configs"))

	// Optional local overrides; never touches existing environment variables.
	_ = godotenv.Load()

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	// stdout carries the protocol payload, so all logging goes to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Warn("Shutdown signal received, cleaning up")
		runCleanups()
		os.Exit(errs.ExitFailure)
	}()

	err := run(CLI.Destination, os.Stdin, os.Stdout)
	runCleanups()
	if err != nil {
		errs.Report(err)
	}
	os.Exit(errs.ExitCode(err))
}

// run executes the two-stage pipeline: acquisition (emit the resolved
// version), then discovery and destination materialization.
func run(dest string, in io.Reader, out io.Writer) error {
	req, err := protocol.Read(in)
	if err != nil {
		return err
	}

	// Transport configuration happens before any network operation.
	if err := auth.ApplyGitConfig(req.Source.GitConfig); err != nil {
		return err
	}
	method, err := auth.Method(req.Source)
	if err != nil {
		return err
	}

	client := git.NewClient(dest, method, req.Source.SkipSSLVerification)
	snapshot, err := client.Acquire(req)
	if err != nil {
		return err
	}

	version, metadata, err := snapshot.Resolve(req.Version.Ref)
	if err != nil {
		return err
	}
	if err := protocol.Write(out, &protocol.Response{Version: version, Metadata: metadata}); err != nil {
		return err
	}
	slog.Info("Version resolved", logfields.Ref(version.Ref))

	return materialize(snapshot, req)
}

// materialize runs discovery against the checked-out tree and replaces the
// destination's contents with the preserved files plus the aggregate config.
// Any failure before the final swap leaves the destination exactly as it was
// after acquisition.
func materialize(snapshot *git.Snapshot, req *protocol.Request) error {
	cfgPath := req.Source.PipelineDiscoverConf
	result, err := pipelines.Discover(snapshot.Path, cfgPath, req.Params.Vars, req.Params.VarsFrom, snapshot.CurrentBranch)
	if err != nil {
		return err
	}

	stager, err := stage.New()
	if err != nil {
		return err
	}
	registerCleanup(func() {
		if err := stager.Close(); err != nil {
			slog.Warn("Failed to remove scratch directory", logfields.Error(err))
		}
	})

	for _, rel := range result.Preserved {
		if err := stager.Add(snapshot.Path, rel); err != nil {
			return err
		}
	}
	aggregate, err := result.Aggregate.Marshal(cfgPath)
	if err != nil {
		return errs.Wrap(err, errs.CategoryDiscovery, "failed to serialize aggregate config")
	}
	if err := stager.WriteFile(cfgPath, aggregate); err != nil {
		return err
	}

	return stager.Swap(snapshot.Path)
}
