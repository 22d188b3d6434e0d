package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	apperrors "github.com/anime-shed/flag-inspector-go/internal/errors"
)

const azureBlobHostSuffix = ".blob.core.windows.net"

// IsAzureBlobURL reports whether u addresses an Azure Blob Storage account
func IsAzureBlobURL(u *url.URL) bool {
	return u != nil && strings.HasSuffix(strings.ToLower(u.Hostname()), azureBlobHostSuffix)
}

// blobLocation is the container and blob addressed by a blob URL
type blobLocation struct {
	account   string
	container string
	blob      string
}

// parseBlobURL splits https://<account>.blob.core.windows.net/<container>/<blob path>
func parseBlobURL(raw string) (blobLocation, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return blobLocation{}, apperrors.NewValidationError("invalid blob URL", err)
	}
	if !IsAzureBlobURL(u) {
		return blobLocation{}, apperrors.NewValidationError("not an Azure blob URL", nil).
			WithDetails("host: " + u.Hostname())
	}

	container, blob, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || container == "" || blob == "" {
		return blobLocation{}, apperrors.NewValidationError("blob URL must name a container and a blob", nil)
	}

	return blobLocation{
		account:   strings.TrimSuffix(strings.ToLower(u.Hostname()), azureBlobHostSuffix),
		container: container,
		blob:      blob,
	}, nil
}

// AzureImageFetcher downloads flag images from one storage account with a shared key
type AzureImageFetcher struct {
	account string
	client  *azblob.Client
	decoder *Decoder
}

func NewAzureImageFetcher(accountName, accountKey string, decoder *Decoder) (*AzureImageFetcher, error) {
	if accountName == "" || accountKey == "" {
		return nil, apperrors.NewValidationError("azure storage account and key are required", nil)
	}

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid azure storage credentials", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s%s", accountName, azureBlobHostSuffix),
		credential,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create azure blob client", err)
	}

	return &AzureImageFetcher{
		account: strings.ToLower(accountName),
		client:  client,
		decoder: decoder,
	}, nil
}

func (s *AzureImageFetcher) FetchImage(ctx context.Context, blobURL string) (*FetchedImage, error) {
	loc, err := parseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}
	if loc.account != s.account {
		return nil, apperrors.NewValidationError("blob URL belongs to a different storage account", nil).
			WithDetails("account: " + loc.account)
	}

	resp, err := s.client.DownloadStream(ctx, loc.container, loc.blob, nil)
	if err != nil {
		switch {
		case bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound):
			return nil, apperrors.NewNotFoundError("blob not found", err)
		case ctx.Err() != nil:
			return nil, apperrors.NewTimeoutError("blob download timed out", err)
		default:
			return nil, apperrors.NewNetworkError("blob download failed", err)
		}
	}
	defer resp.Body.Close()

	if resp.ContentLength != nil {
		if err := s.decoder.types.ValidateSize(*resp.ContentLength); err != nil {
			return nil, err
		}
	}

	return s.decoder.Decode(resp.Body)
}
