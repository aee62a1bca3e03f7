package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `{
  "streams": [
    {
      "codec_type": "audio",
      "codec_name": "aac"
    },
    {
      "codec_type": "video",
      "codec_name": "h264",
      "width": 1920,
      "height": 1080,
      "r_frame_rate": "30000/1001",
      "duration": "12.512500"
    }
  ],
  "format": {
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "duration": "12.545000",
    "size": "5242880",
    "bit_rate": "3343065"
  }
}`

func TestParseMetadata(t *testing.T) {
	metadata, err := ParseMetadata([]byte(sampleReport))
	require.NoError(t, err)

	stream := metadata.VideoStream()
	require.NotNil(t, stream)

	assert.Equal(t, "h264", stream.CodecName)
	assert.Equal(t, 1920, stream.Width)
	assert.Equal(t, 1080, stream.Height)
	assert.InDelta(t, 29.97, stream.FrameRate(), 0.01)
}

func TestParseMetadataInvalid(t *testing.T) {
	_, err := ParseMetadata([]byte("not json"))
	assert.Error(t, err)
}

func TestVideoStreamMissing(t *testing.T) {
	metadata, err := ParseMetadata([]byte(`{"streams":[{"codec_type":"audio"}]}`))
	require.NoError(t, err)
	assert.Nil(t, metadata.VideoStream())
}

func TestFrameRateMalformed(t *testing.T) {
	stream := Stream{RFrameRate: "30"}
	assert.Zero(t, stream.FrameRate())

	stream.RFrameRate = "30/0"
	assert.Zero(t, stream.FrameRate())
}
