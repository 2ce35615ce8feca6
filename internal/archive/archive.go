// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive mirrors the produced issue artifacts to an S3 bucket.
// Objects carry a sha256 metadata entry so unchanged files are not
// uploaded again.
package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/pdiddy/libertas-archive/internal/layout"
	"github.com/pdiddy/libertas-archive/pkg/types"
)

const checksumKey = "sha256"

// ObjectStore is the subset of the S3 client the publisher uses.
type ObjectStore interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds an S3 client from the default AWS configuration chain
// with the region and profile overrides from cfg.
func NewS3Client(ctx context.Context, cfg types.PublishConfig) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// Publisher uploads issue artifacts under a key prefix.
type Publisher struct {
	store  ObjectStore
	bucket string
	prefix string

	// IncludePDF also uploads the downloaded PDFs.
	IncludePDF bool
}

// NewPublisher returns a Publisher writing to cfg.Bucket.
func NewPublisher(store ObjectStore, cfg types.PublishConfig) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("publish bucket is not configured")
	}
	return &Publisher{
		store:  store,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Key returns the object key for an issue artifact.
func (p *Publisher) Key(issue types.Issue, name string) string {
	return path.Join(p.prefix, "issues", issue.ID, name)
}

// Result holds counts from a publish run.
type Result struct {
	Uploaded  int
	Unchanged int
	Failed    int
}

// HasFailures reports whether any upload failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Publish uploads every present artifact of the given issues. Objects whose
// stored checksum matches the local file are left alone unless force is set.
func (p *Publisher) Publish(ctx context.Context, l layout.Layout, issues []types.Issue, force bool, w io.Writer) (Result, error) {
	log := zerolog.Ctx(ctx)
	var result Result

	for _, issue := range issues {
		for _, a := range layout.Artifacts {
			if a.Kind == types.ArtifactPDF && !p.IncludePDF {
				continue
			}
			if err := ctx.Err(); err != nil {
				return result, err
			}
			src := l.Path(issue, a.Kind, a.Model)
			if layout.Status(src) == layout.Missing {
				continue
			}
			key := p.Key(issue, a.Name())

			uploaded, err := p.publishFile(ctx, src, key, contentType(a.Kind), force)
			switch {
			case err != nil:
				log.Error().Err(err).Str("key", key).Msg("upload failed")
				fmt.Fprintf(w, "failed:    %s (%v)\n", key, err)
				result.Failed++
			case uploaded:
				fmt.Fprintf(w, "uploaded:  %s\n", key)
				result.Uploaded++
			default:
				fmt.Fprintf(w, "unchanged: %s\n", key)
				result.Unchanged++
			}
		}
	}

	fmt.Fprintf(w, "\nPublish summary: %d uploaded, %d unchanged, %d failed (bucket: %s)\n",
		result.Uploaded, result.Unchanged, result.Failed, p.bucket)
	return result, nil
}

func (p *Publisher) publishFile(ctx context.Context, src, key, ctype string, force bool) (bool, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", src, err)
	}
	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	if !force {
		remote, err := p.remoteChecksum(ctx, key)
		if err != nil {
			return false, err
		}
		if remote == checksum {
			return false, nil
		}
	}

	_, err = p.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ctype),
		Metadata:    map[string]string{checksumKey: checksum},
	})
	if err != nil {
		return false, fmt.Errorf("putting object: %w", err)
	}
	return true, nil
}

// remoteChecksum returns the stored checksum of key, or "" when the object
// does not exist.
func (p *Publisher) remoteChecksum(ctx context.Context, key string) (string, error) {
	out, err := p.store.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("checking object: %w", err)
	}
	return out.Metadata[checksumKey], nil
}

func isNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}

func contentType(kind types.ArtifactKind) string {
	if kind == types.ArtifactPDF {
		return "application/pdf"
	}
	return "text/markdown; charset=utf-8"
}
