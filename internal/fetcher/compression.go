package fetcher

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// openCompressed 按扩展名选择解压方式：.gz / .zst / 其他视为明文
func openCompressed(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("gzip解压失败 %s: %w", path, err)
		}
		return &stackedCloser{Reader: gz, closers: []io.Closer{gz, file}}, nil

	case strings.HasSuffix(path, ".zst"), strings.HasSuffix(path, ".zstd"):
		dec, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("zstd解压失败 %s: %w", path, err)
		}
		rc := dec.IOReadCloser()
		return &stackedCloser{Reader: rc, closers: []io.Closer{rc, file}}, nil

	default:
		return file, nil
	}
}

// stackedCloser 依次关闭解压器和底层文件
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (sc *stackedCloser) Close() error {
	var first error
	for _, c := range sc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
