package storage

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// SnapshotStore keeps a copy of each submitted photo.
type SnapshotStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// blobUploader is the part of *azblob.Client the store uses.
type blobUploader interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

type azureSnapshotStore struct {
	client    blobUploader
	container string
}

// NewAzureSnapshotStore writes snapshots as block blobs into container.
func NewAzureSnapshotStore(accountName, accountKey, container string) (SnapshotStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid storage credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	return &azureSnapshotStore{client: client, container: container}, nil
}

func (s *azureSnapshotStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	opts := &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	}
	if _, err := s.client.UploadBuffer(ctx, s.container, key, data, opts); err != nil {
		return fmt.Errorf("upload %s/%s failed: %w", s.container, key, err)
	}
	return nil
}

type noopSnapshotStore struct{}

// NewNoopSnapshotStore returns a store that discards everything.
func NewNoopSnapshotStore() SnapshotStore {
	return noopSnapshotStore{}
}

func (noopSnapshotStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return ctx.Err()
}
