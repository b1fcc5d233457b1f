package http

import (
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zstd"
)

// exportEntry is the JSONL export shape. Signatures are hex-encoded
// here; the in-memory Entry omits them from JSON to keep API responses
// compact.
type exportEntry struct {
	Timestamp int64  `json:"timestamp"`
	ProcessID uint32 `json:"process_id"`
	Action    uint32 `json:"action"`
	Result    uint32 `json:"result"`
	Signature string `json:"signature"`
}

// ExportAudit streams the full audit log, oldest first, as
// zstd-compressed JSONL. Entries appended after the snapshot is taken
// are not included.
func (h *Handlers) ExportAudit(c *gin.Context) {
	entries := h.kernel.Audit.Snapshot()

	c.Header("Content-Type", "application/zstd")
	c.Header("Content-Disposition", `attachment; filename="audit.jsonl.zst"`)
	c.Status(http.StatusOK)

	enc, err := zstd.NewWriter(c.Writer)
	if err != nil {
		h.logger.Sugar().Errorw("audit export encoder init failed", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	defer enc.Close()

	out := json.NewEncoder(enc)
	for _, e := range entries {
		rec := exportEntry{
			Timestamp: e.Timestamp,
			ProcessID: e.ProcessID,
			Action:    e.Action,
			Result:    e.Result,
			Signature: hex.EncodeToString(e.Signature[:]),
		}
		if err := out.Encode(&rec); err != nil {
			// Client likely disconnected mid-stream.
			h.logger.Sugar().Debugw("audit export aborted", "error", err)
			return
		}
	}
}
