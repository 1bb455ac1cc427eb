package export

import (
	"github.com/dustin/go-humanize"

	"github.com/joescharf/pinpoint/internal/models"
)

const (
	baseSize      = 2048
	perComment    = 512
	perReply      = 256
	perAttachment = 128
	aiSizeFactor  = 1.5
)

// EstimateSize is an advisory byte count for an export preview:
// 2048 + 512 per comment + 256 per reply + 128 per attachment, times 1.5 with AI analysis.
func EstimateSize(comments []*models.Comment, withAI bool) int64 {
	var replies, attachments int64
	for _, c := range comments {
		replies += int64(len(c.Replies))
		attachments += int64(c.AttachmentCount())
	}
	size := int64(baseSize) + perComment*int64(len(comments)) + perReply*replies + perAttachment*attachments
	if withAI {
		size = int64(float64(size) * aiSizeFactor)
	}
	return size
}

// HumanSize formats a byte count for display, e.g. "3.6 kB".
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
