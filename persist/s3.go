/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package persist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Factory opens S3Engine instances under one bucket/prefix, adapted
// from storage.S3Factory/S3Storage's ReadSchema/WriteSchema pair,
// narrowed to a single object per save slot rather than a whole
// column/log/shard tree.
type S3Factory struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string
	Bucket          string
	Prefix          string
	ForcePathStyle  bool
}

func (f *S3Factory) Open(name string) Engine {
	pfx := f.Prefix
	if pfx != "" {
		pfx = pfx + "/"
	}
	return &S3Engine{factory: f, key: pfx + name + ".json"}
}

type S3Engine struct {
	factory *S3Factory
	key     string

	mu     sync.Mutex
	client *s3.Client
	opened bool
}

func (e *S3Engine) ensureOpen() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opened {
		return
	}

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if e.factory.Region != "" {
		opts = append(opts, config.WithRegion(e.factory.Region))
	}
	if e.factory.AccessKeyID != "" && e.factory.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(e.factory.AccessKeyID, e.factory.SecretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		panic(fmt.Sprintf("persist.S3Engine: failed to load AWS config: %v", err))
	}

	var s3Opts []func(*s3.Options)
	if e.factory.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(e.factory.Endpoint) })
	}
	if e.factory.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}
	e.client = s3.NewFromConfig(cfg, s3Opts...)
	e.opened = true
}

func (e *S3Engine) Read() ([]byte, error) {
	e.ensureOpen()
	resp, err := e.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(e.factory.Bucket),
		Key:    aws.String(e.key),
	})
	if err != nil {
		return nil, nil // no prior save yet
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (e *S3Engine) Write(data []byte) error {
	e.ensureOpen()
	_, err := e.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(e.factory.Bucket),
		Key:    aws.String(e.key),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (e *S3Engine) Remove() error {
	e.ensureOpen()
	_, err := e.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(e.factory.Bucket),
		Key:    aws.String(e.key),
	})
	return err
}
