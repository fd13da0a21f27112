package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"videoqa/internal/config"
	"videoqa/internal/diagnostics"
	"videoqa/internal/services"
	"videoqa/internal/video"
)

const (
	serviceCheckName     = "Video service"
	diagnosticsCheckName = "Diagnostics journal"
	serviceCheckTimeout  = 10 * time.Second
)

// Lister is the slice of the video service client the reachability check needs.
type Lister interface {
	List(ctx context.Context) ([]video.Video, error)
}

// CheckService lists videos once to confirm the service answers.
// The check bounds its own request even though regular calls never time out.
func CheckService(ctx context.Context, baseURL string, lister Lister) Result {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return Result{Name: serviceCheckName, Detail: "missing base url"}
	}
	if lister == nil {
		return Result{Name: serviceCheckName, Detail: base + " (no client)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, serviceCheckTimeout)
	defer cancel()

	videos, err := lister.List(checkCtx)
	if err != nil {
		return Result{Name: serviceCheckName, Detail: fmt.Sprintf("%s (%s)", base, summarizeServiceError(err))}
	}
	return Result{Name: serviceCheckName, Passed: true, Detail: fmt.Sprintf("%s (%d videos)", base, len(videos))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiagnostics opens the journal and reports how many failures it holds.
func CheckDiagnostics(cfg *config.Config) Result {
	journal, err := diagnostics.Open(cfg, nil)
	if err != nil {
		if errors.Is(err, diagnostics.ErrDisabled) {
			return Result{Name: diagnosticsCheckName, Passed: true, Detail: "Disabled"}
		}
		return Result{Name: diagnosticsCheckName, Detail: fmt.Sprintf("%s (error: %v)", cfg.Paths.DiagnosticsDB, err)}
	}
	defer journal.Close()

	counts, err := journal.Counts(context.Background())
	if err != nil {
		return Result{Name: diagnosticsCheckName, Detail: fmt.Sprintf("%s (error: %v)", journal.Path(), err)}
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return Result{Name: diagnosticsCheckName, Passed: true, Detail: fmt.Sprintf("%s (%d recorded failures)", journal.Path(), total)}
}

// summarizeServiceError produces a short reason for a failed reachability check.
func summarizeServiceError(err error) string {
	switch services.KindOf(err) {
	case services.KindTransport:
		return "unreachable"
	case services.KindStatus:
		code, _ := services.StatusCode(err)
		return fmt.Sprintf("http %d: %s", code, services.Message(err, ""))
	case services.KindDecode:
		return "unexpected response"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	return err.Error()
}
