package registration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/seqsense/pcchain/record"
	"github.com/seqsense/pcchain/scan"
)

const (
	DefaultTimeout = 10 * time.Minute
	// Defaults of the rotation (S3) and translation (R3) smoothness weights.
	DefaultLambdaS3 float64 = 60
	DefaultLambdaR3 float64 = 0.001

	stderrTail = 512
	waitDelay  = 2 * time.Second
)

// Command runs an external registration program once per pair:
//
//	<Binary> -a <scan A> -b <scan B> -l <LambdaS3> -t <LambdaR3> -o <A>_<B>
//
// The program is expected to exit with status 0 after writing <A>_<B>.csv
// in WorkDir. The file is then handed to Store.
type Command struct {
	Binary   string
	LambdaS3 float64
	LambdaR3 float64
	WorkDir  string
	Timeout  time.Duration
	Store    record.Store
	Logger   *log.Logger
}

func (c *Command) logger() *log.Logger {
	if c.Logger == nil {
		return log.Default()
	}
	return c.Logger
}

// Args returns the command line arguments for the pair (a, b).
func (c *Command) Args(a, b scan.Scan) []string {
	return []string{
		"-a", a.Path,
		"-b", b.Path,
		"-l", strconv.FormatFloat(c.LambdaS3, 'g', -1, 64),
		"-t", strconv.FormatFloat(c.LambdaR3, 'g', -1, 64),
		"-o", Key(a, b).Stem(),
	}
}

func (c *Command) Register(ctx context.Context, a, b scan.Scan) (record.Record, error) {
	key := Key(a, b)

	// The program runs in WorkDir, scan paths must not depend on our own.
	absA, err := filepath.Abs(a.Path)
	if err != nil {
		return record.Record{}, failed(a, b, err)
	}
	absB, err := filepath.Abs(b.Path)
	if err != nil {
		return record.Record{}, failed(a, b, err)
	}
	args := c.Args(scan.Scan{Path: absA, Name: a.Name}, scan.Scan{Path: absB, Name: b.Name})

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	out := filepath.Join(c.WorkDir, key.Filename())
	if !c.storesOutput(out, key) {
		// A file left by an earlier run must not pass for this run's result.
		if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
			return record.Record{}, failed(a, b, fmt.Errorf("removing stale output: %w", err))
		}
	}

	ctxRun, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctxRun, c.Binary, args...)
	cmd.Dir = c.WorkDir
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger().Info("Registering", "pair", key, "cmd", c.Binary+" "+strings.Join(args, " "))
	start := time.Now()
	err = cmd.Run()
	if stdout.Len() > 0 {
		c.logger().Debug("Registration output", "pair", key, "stdout", strings.TrimSpace(stdout.String()))
	}

	switch {
	case ctx.Err() != nil:
		return record.Record{}, failed(a, b, ctx.Err())
	case errors.Is(ctxRun.Err(), context.DeadlineExceeded):
		return record.Record{}, failed(a, b, fmt.Errorf("timed out after %s", timeout))
	case err != nil:
		if s := tail(stderr.String()); s != "" {
			err = fmt.Errorf("%w: %s", err, s)
		}
		return record.Record{}, failed(a, b, err)
	}

	rec, err := record.ReadFile(out, key)
	if err != nil {
		return record.Record{}, failed(a, b, fmt.Errorf("no loadable record: %w", err))
	}
	rec, err = persist(ctx, c.Store, key, rec)
	if err != nil {
		return record.Record{}, failed(a, b, err)
	}
	c.logger().Info("Registered", "pair", key, "elapsed", time.Since(start).Round(time.Millisecond))
	return rec, nil
}

// storesOutput reports whether path is the file in which Store keeps the
// record of key.
func (c *Command) storesOutput(path string, key record.Key) bool {
	ds, ok := c.Store.(*record.DirStore)
	if !ok {
		return false
	}
	p, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	sp, err := filepath.Abs(ds.Path(key))
	if err != nil {
		return false
	}
	return p == sp
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		s = "..." + s[len(s)-stderrTail:]
	}
	return s
}
