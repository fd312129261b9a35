// Package validate confirms produced artifact references are reachable and
// well-formed before an item may reach terminal success. Remote engines
// routinely report success while returning dead or delayed links; this check
// is what catches that class of defect.
package validate

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// internalKeyPattern matches references into our own storage, which need no
// network check.
var internalKeyPattern = regexp.MustCompile(`^generated/(videos|images)/[A-Za-z0-9_./-]+$`)

// Validator performs lightweight existence checks with bounded retries.
type Validator struct {
	client      *http.Client
	maxAttempts int
	retryDelay  time.Duration
	logger      zerolog.Logger
}

// Options tunes the validator. Zero values fall back to the defaults:
// five attempts with a one-second base delay.
type Options struct {
	Client      *http.Client
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      zerolog.Logger
}

// New builds a validator.
func New(opts Options) *Validator {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &Validator{
		client:      opts.Client,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		logger:      opts.Logger,
	}
}

// Validate checks that ref points at a live, media-typed artifact. It retries
// up to the attempt budget with linearly increasing delay; a successful check
// short-circuits remaining attempts. Ordinary network failure is an expected
// outcome and is reported as false, never as an error.
func (v *Validator) Validate(ctx context.Context, ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	if internalKeyPattern.MatchString(ref) {
		return true
	}
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return false
	}

	for attempt := 1; attempt <= v.maxAttempts; attempt++ {
		if v.check(ctx, ref) {
			return true
		}
		if attempt == v.maxAttempts {
			break
		}
		delay := v.retryDelay * time.Duration(attempt)
		v.logger.Debug().Str("ref", ref).Int("attempt", attempt).Dur("delay", delay).Msg("validate: retrying")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
	}
	return false
}

// check performs one HEAD probe, falling back to a ranged GET for hosts that
// reject HEAD.
func (v *Validator) check(ctx context.Context, ref string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, ref, nil)
	if err != nil {
		return false
	}
	resp, err := v.client.Do(req)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			return acceptable(resp)
		}
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Range", "bytes=0-0")
	resp, err = v.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return acceptable(resp)
}

func acceptable(resp *http.Response) bool {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.HasPrefix(ct, "video/"),
		strings.HasPrefix(ct, "image/"),
		strings.HasPrefix(ct, "audio/"),
		strings.HasPrefix(ct, "application/octet-stream"):
		return true
	case ct == "":
		// Storage backends that omit the header still count as reachable.
		return true
	default:
		return false
	}
}
