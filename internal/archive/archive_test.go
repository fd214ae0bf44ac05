package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink, err := NewDirSink(dir)
	require.NoError(t, err)

	path, err := sink.Put(context.Background(), "Invoice-INV-24-0001.pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Invoice-INV-24-0001.pdf"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestDirSinkCancelled(t *testing.T) {
	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sink.Put(ctx, "a.pdf", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeUploader struct {
	inputs []*s3manager.UploadInput
	bodies [][]byte
	err    error
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), in, opts...)
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3manager.UploadOutput{
		Location: "https://" + aws.StringValue(in.Bucket) + ".s3.amazonaws.com/" + aws.StringValue(in.Key),
	}, nil
}

func TestS3Sink(t *testing.T) {
	up := &fakeUploader{}
	sink := NewS3SinkWithUploader("invoices", "/2024/", up)

	loc, err := sink.Put(context.Background(), "Invoice-INV-24-0001.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "https://invoices.s3.amazonaws.com/2024/Invoice-INV-24-0001.pdf", loc)

	require.Len(t, up.inputs, 1)
	assert.Equal(t, "application/pdf", aws.StringValue(up.inputs[0].ContentType))
	assert.Equal(t, []byte("pdf"), up.bodies[0])
}

func TestS3SinkFailure(t *testing.T) {
	sink := NewS3SinkWithUploader("invoices", "", &fakeUploader{err: errors.New("access denied")})

	_, err := sink.Put(context.Background(), "x.pdf", []byte("pdf"))
	assert.ErrorIs(t, err, ErrStoreFailed)
	assert.Contains(t, err.Error(), "s3://invoices/x.pdf")
}
