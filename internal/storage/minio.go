package storage

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
)

// MinIOStorage 对象存储，视频和缩略图分别放在两个 Bucket
type MinIOStorage struct {
	client  *minio.Client
	buckets map[Kind]string
}

func NewMinIOStorage(client *minio.Client, videoBucket, thumbnailBucket string) *MinIOStorage {
	return &MinIOStorage{
		client: client,
		buckets: map[Kind]string{
			KindVideo:     videoBucket,
			KindThumbnail: thumbnailBucket,
		},
	}
}

func (m *MinIOStorage) bucket(kind Kind, name string) (string, error) {
	bucket, ok := m.buckets[kind]
	if !ok {
		return "", ErrUnknownKind
	}
	if !ValidName(name) {
		return "", ErrInvalidName
	}
	return bucket, nil
}

func (m *MinIOStorage) Put(ctx context.Context, kind Kind, name string, r io.Reader, size int64, contentType string) error {
	bucket, err := m.bucket(kind, name)
	if err != nil {
		return err
	}
	_, err = m.client.PutObject(ctx, bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return errors.Wrapf(err, "put object %s/%s", bucket, name)
	}
	return nil
}

func (m *MinIOStorage) Open(ctx context.Context, kind Kind, name string) (*Object, error) {
	bucket, err := m.bucket(kind, name)
	if err != nil {
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "get object %s/%s", bucket, name)
	}

	// GetObject 是惰性的，Stat 时才真正发请求
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, errors.Wrapf(err, "stat object %s/%s", bucket, name)
	}

	return &Object{
		Body:        obj,
		Size:        info.Size,
		ModTime:     info.LastModified,
		ContentType: info.ContentType,
	}, nil
}

func (m *MinIOStorage) Remove(ctx context.Context, kind Kind, name string) error {
	bucket, err := m.bucket(kind, name)
	if err != nil {
		return err
	}
	if err := m.client.RemoveObject(ctx, bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, "remove object %s/%s", bucket, name)
	}
	return nil
}
