package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LocalStorage 本地文件系统存储
type LocalStorage struct {
	dirs map[Kind]string
}

// NewLocalStorage 创建本地存储并确保目录存在
func NewLocalStorage(uploadDir, thumbnailDir string) (*LocalStorage, error) {
	dirs := map[Kind]string{
		KindVideo:     uploadDir,
		KindThumbnail: thumbnailDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "create storage dir %s", dir)
		}
	}
	return &LocalStorage{dirs: dirs}, nil
}

func (l *LocalStorage) path(kind Kind, name string) (string, error) {
	dir, ok := l.dirs[kind]
	if !ok {
		return "", ErrUnknownKind
	}
	if !ValidName(name) {
		return "", ErrInvalidName
	}
	return filepath.Join(dir, name), nil
}

// Put 先写临时文件再重命名，避免读到写了一半的文件
func (l *LocalStorage) Put(_ context.Context, kind Kind, name string, r io.Reader, _ int64, _ string) error {
	dst, err := l.path(kind, name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+name+".*.part")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close file")
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "rename file")
	}
	return nil
}

func (l *LocalStorage) Open(_ context.Context, kind Kind, name string) (*Object, error) {
	p, err := l.path(kind, name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, errors.Wrap(err, "open file")
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "stat file")
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrObjectNotFound
	}

	return &Object{
		Body:        f,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: ContentTypeByName(name),
	}, nil
}

// Remove 删除文件，文件不存在视为成功
func (l *LocalStorage) Remove(_ context.Context, kind Kind, name string) error {
	p, err := l.path(kind, name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove file")
	}
	return nil
}
