// Package proofstore keeps payment proof images on local disk.
package proofstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const DefaultMaxBytes = 10 << 20

var (
	ErrTooLarge  = errors.New("proof exceeds size limit")
	ErrBadRef    = errors.New("proof reference is not managed by this store")
	unsafeInName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// Disk writes each proof to <dir>/receipt-<order>-<unix ms>.jpg and hands out
// references of the form <urlPrefix>/<file name>.
type Disk struct {
	dir       string
	urlPrefix string
	maxBytes  int64
	now       func() time.Time
}

func NewDisk(dir, urlPrefix string) (*Disk, error) {
	if dir == "" {
		return nil, errors.New("proof dir is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create proof dir: %w", err)
	}
	return &Disk{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		maxBytes:  DefaultMaxBytes,
		now:       time.Now,
	}, nil
}

func (d *Disk) Dir() string       { return d.dir }
func (d *Disk) URLPrefix() string { return d.urlPrefix }

// Save streams r into a temporary file and renames it into place only once the
// whole body has arrived. Any failure removes the temporary file.
func (d *Disk) Save(ctx context.Context, orderNumber string, r io.Reader) (string, error) {
	name := fmt.Sprintf("receipt-%s-%d.jpg", unsafeInName.ReplaceAllString(orderNumber, "_"), d.now().UnixMilli())

	tmp, err := os.CreateTemp(d.dir, name+".*.part")
	if err != nil {
		return "", fmt.Errorf("create temp proof: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", err
	}

	n, err := io.Copy(tmp, io.LimitReader(&ctxReader{ctx: ctx, r: r}, d.maxBytes+1))
	if err != nil {
		return fail(fmt.Errorf("write proof: %w", err))
	}
	if n > d.maxBytes {
		return fail(ErrTooLarge)
	}
	if n == 0 {
		return fail(errors.New("proof is empty"))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("sync proof: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close proof: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(d.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename proof: %w", err)
	}
	return path.Join(d.urlPrefix, name), nil
}

func (d *Disk) Remove(ref string) error {
	name, err := d.fileName(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(d.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *Disk) fileName(ref string) (string, error) {
	dir, name := path.Split(ref)
	if path.Clean(dir) != d.urlPrefix || !strings.HasPrefix(name, "receipt-") || strings.HasSuffix(name, ".part") {
		return "", fmt.Errorf("%w: %q", ErrBadRef, ref)
	}
	return name, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
