package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore keeps resumes in a MongoDB GridFS bucket.
// A gridfs.Bucket carries its read and write deadlines as mutable state, so
// every operation works on its own bucket handle.
type GridFSStore struct {
	client *mongo.Client
	db     *mongo.Database
	name   string
}

// ConnectGridFS dials uri and opens the named bucket in database.
func ConnectGridFS(ctx context.Context, uri, database, bucket string) (*GridFSStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	store, err := NewGridFSStore(client.Database(database), bucket)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	store.client = client
	log.Info().Str("database", database).Str("bucket", bucket).Msg("GridFS bucket ready")
	return store, nil
}

func NewGridFSStore(db *mongo.Database, bucket string) (*GridFSStore, error) {
	s := &GridFSStore{db: db, name: bucket}
	if _, err := s.openBucket(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// openBucket returns a fresh bucket handle bounded by ctx's deadline.
func (s *GridFSStore) openBucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.name))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket %q: %w", s.name, err)
	}
	d := deadline(ctx)
	if err := b.SetReadDeadline(d); err != nil {
		return nil, err
	}
	if err := b.SetWriteDeadline(d); err != nil {
		return nil, err
	}
	return b, nil
}

// Close disconnects the client when the store owns it.
func (s *GridFSStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Time{}
}

func (s *GridFSStore) Save(ctx context.Context, filename, contentType, uploadedBy string, r io.Reader) (*ResumeFile, error) {
	if contentType == "" {
		contentType = defaultContentType
	}
	bucket, err := s.openBucket(ctx)
	if err != nil {
		return nil, err
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{
		{Key: "contentType", Value: contentType},
		{Key: "uploadedBy", Value: uploadedBy},
	})
	id, err := bucket.UploadFromStream(filename, r, opts)
	if err != nil {
		return nil, fmt.Errorf("gridfs upload: %w", err)
	}
	return &ResumeFile{
		ID:          id.Hex(),
		Filename:    filename,
		ContentType: contentType,
		UploadedBy:  uploadedBy,
		UploadedAt:  time.Now(),
	}, nil
}

func (s *GridFSStore) Open(ctx context.Context, id string) (*ResumeFile, io.ReadCloser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil, ErrFileNotFound
	}
	bucket, err := s.openBucket(ctx)
	if err != nil {
		return nil, nil, err
	}
	stream, err := bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("gridfs open: %w", err)
	}
	f := stream.GetFile()
	meta := &ResumeFile{
		ID:          id,
		Filename:    f.Name,
		Size:        f.Length,
		UploadedAt:  f.UploadDate,
		ContentType: defaultContentType,
	}
	if v, ok := f.Metadata.Lookup("contentType").StringValueOK(); ok && v != "" {
		meta.ContentType = v
	}
	if v, ok := f.Metadata.Lookup("uploadedBy").StringValueOK(); ok {
		meta.UploadedBy = v
	}
	return meta, stream, nil
}

func (s *GridFSStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrFileNotFound
	}
	bucket, err := s.openBucket(ctx)
	if err != nil {
		return err
	}
	if err := bucket.DeleteContext(ctx, oid); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("gridfs delete: %w", err)
	}
	return nil
}
