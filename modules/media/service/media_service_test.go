package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"testing"

	"schedule-agent/core/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type stubPutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (s *stubPutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.input = params
	s.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestObjectKey(t *testing.T) {
	t.Parallel()
	key := ObjectKey("Meeting Notes Ánh.MP3")
	if !regexp.MustCompile(`^audio/[0-9A-Za-z]{10}-meeting-notes-anh\.mp3$`).MatchString(key) {
		t.Fatalf("unexpected key %q", key)
	}
	if key := ObjectKey("???.wav"); !regexp.MustCompile(`^audio/[0-9A-Za-z]{10}-audio\.wav$`).MatchString(key) {
		t.Fatalf("unexpected fallback key %q", key)
	}
}

func TestUploadAudio(t *testing.T) {
	t.Parallel()
	putter := &stubPutter{}
	svc := NewMediaService(putter, "bucket", "https://cdn.example.com/")

	resp, err := svc.UploadAudio(context.Background(), "memo.wav", "audio/wav", 4, bytes.NewReader([]byte("RIFF")))
	if err != nil {
		t.Fatalf("UploadAudio: %v", err)
	}
	if aws.ToString(putter.input.Bucket) != "bucket" || aws.ToString(putter.input.Key) != resp.Key {
		t.Fatalf("unexpected put input %+v", putter.input)
	}
	if string(putter.body) != "RIFF" {
		t.Fatalf("unexpected body %q", putter.body)
	}
	if resp.URL != "https://cdn.example.com/"+resp.Key {
		t.Fatalf("unexpected url %q", resp.URL)
	}
}

func TestUploadAudioRejects(t *testing.T) {
	t.Parallel()
	svc := NewMediaService(&stubPutter{}, "bucket", "")

	if _, err := svc.UploadAudio(context.Background(), "doc.pdf", "application/pdf", 10, bytes.NewReader(nil)); errors.CodeOf(err) != errors.ErrInvalidInput {
		t.Fatalf("non-audio should be rejected, got %v", err)
	}
	if _, err := svc.UploadAudio(context.Background(), "a.wav", "audio/wav", 0, bytes.NewReader(nil)); errors.CodeOf(err) != errors.ErrInvalidInput {
		t.Fatalf("empty file should be rejected, got %v", err)
	}
	if _, err := svc.UploadAudio(context.Background(), "a.wav", "audio/wav", MaxAudioSize+1, bytes.NewReader(nil)); errors.CodeOf(err) != errors.ErrInvalidInput {
		t.Fatalf("large file should be rejected, got %v", err)
	}

	failing := NewMediaService(&stubPutter{err: fmt.Errorf("boom")}, "bucket", "")
	if _, err := failing.UploadAudio(context.Background(), "a.mp3", "audio/mpeg", 3, bytes.NewReader([]byte("ID3"))); errors.CodeOf(err) != errors.ErrExternalSync {
		t.Fatalf("storage failure should be EXTERNAL_SYNC, got %v", err)
	}
}
