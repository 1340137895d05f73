// Package s3 exposes the buckets of an S3-compatible endpoint as databases.
// Buckets are numbered by their position in name order, so the index of a
// bucket shifts when buckets are created or removed.
package s3

import (
	"context"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
)

// Config contains the connection options for the S3 store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// Store is a keystore.Store over an S3 endpoint.
type Store struct {
	client *minio.Client
}

var _ keystore.Store = (*Store)(nil)

// New creates a client for the endpoint.
func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating s3 client for %s", cfg.Endpoint)
	}
	return &Store{client: client}, nil
}

func (s *Store) buckets(ctx context.Context) ([]string, error) {
	infos, err := s.client.ListBuckets(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing buckets")
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) bucket(ctx context.Context, db int) (string, error) {
	names, err := s.buckets(ctx)
	if err != nil {
		return "", err
	}
	if db < 0 || db >= len(names) {
		return "", keystore.UnknownDatabase(db)
	}
	return names[db], nil
}

func (s *Store) Databases(ctx context.Context) ([]keystore.Database, error) {
	names, err := s.buckets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]keystore.Database, len(names))
	for i, name := range names {
		out[i] = keystore.Database{Index: i, Name: name}
	}
	return out, nil
}

func (s *Store) Keys(ctx context.Context, db int) ([]string, error) {
	bucket, err := s.bucket(ctx, db)
	if err != nil {
		return nil, err
	}
	var keys []string
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrapf(obj.Err, "listing objects of %s", bucket)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *Store) KeyCount(ctx context.Context, db int) (int, error) {
	keys, err := s.Keys(ctx, db)
	return len(keys), err
}

func (s *Store) Put(ctx context.Context, db int, key, value string) error {
	bucket, err := s.bucket(ctx, db)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, bucket, key, strings.NewReader(value), int64(len(value)), minio.PutObjectOptions{})
	return errors.Wrapf(err, "putting %q in %s", key, bucket)
}

func (s *Store) Close() error {
	return nil
}
