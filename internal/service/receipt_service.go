// internal/service/receipt_service.go
package service

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/receipt"
	"printer-service/internal/utils"
	"printer-service/pkg/commandset"
)

// ReceiptService renders receipts without touching a printer
type ReceiptService struct {
	defaultEncoding receipt.Encoding
	clock           func() time.Time
	logger          *utils.ServiceLogger
}

// NewReceiptService creates a renderer. codePage is used when a request
// names none; empty means utf-8.
func NewReceiptService(codePage string, logger *zap.Logger) (*ReceiptService, error) {
	enc, err := receipt.LookupEncoding(codePage)
	if err != nil {
		return nil, fmt.Errorf("invalid default code page: %w", err)
	}
	return &ReceiptService{
		defaultEncoding: enc,
		clock:           time.Now,
		logger:          utils.NewServiceLogger(logger, "receipt-service"),
	}, nil
}

// PreviewRequest carries the same inputs as a print
type PreviewRequest struct {
	Order      *model.Order         `json:"order"`
	Restaurant *model.Restaurant    `json:"restaurant"`
	Config     *model.PrinterConfig `json:"config"`
}

// Preview is a rendered receipt
type Preview struct {
	CommandSet string   `json:"command_set"`
	CodePage   string   `json:"code_page"`
	Fragments  int      `json:"fragments"`
	Bytes      int      `json:"bytes"`
	Data       string   `json:"data"` // base64 of the printer stream
	Hex        string   `json:"hex"`
	Text       string   `json:"text"`
	Parts      []string `json:"parts"`
}

// Preview lays out and encodes a receipt. A nil config renders the
// standard template with default settings.
func (rs *ReceiptService) Preview(req *PreviewRequest) (*Preview, error) {
	if req == nil || req.Order == nil {
		return nil, fmt.Errorf("%w: order is required", ErrInvalidRequest)
	}
	if err := req.Order.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	cfg := model.PrinterConfig{Template: model.TemplateStandard}
	if req.Config != nil {
		cfg = req.Config.Snapshot()
	}

	enc := rs.defaultEncoding
	if cfg.CodePage != "" {
		e, err := receipt.LookupEncoding(cfg.CodePage)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		enc = e
	}

	table := commandset.GetCommands(cfg.CommandSet)
	parts := receipt.Build(req.Order, req.Restaurant, cfg, receipt.Options{Now: rs.clock()})
	fragments := receipt.Encode(parts, table, enc)
	data := receipt.Bytes(fragments)

	labels := make([]string, len(parts))
	for i, p := range parts {
		labels[i] = p.String()
	}

	rs.logger.Debug("Receipt rendered",
		zap.String("order", req.Order.Reference()),
		zap.String("command_set", table.ID.String()),
		zap.Int("bytes", len(data)),
	)

	return &Preview{
		CommandSet: table.ID.String(),
		CodePage:   enc.Name(),
		Fragments:  len(fragments),
		Bytes:      len(data),
		Data:       base64.StdEncoding.EncodeToString(data),
		Hex:        hex.EncodeToString(data),
		Text:       receipt.PlainText(parts),
		Parts:      labels,
	}, nil
}

// CommandSetInfo describes one dialect for API clients
type CommandSetInfo struct {
	Name     string            `json:"name"`
	Default  bool              `json:"default"`
	Commands map[string]string `json:"commands"` // command name to hex bytes
}

// CommandSets lists every supported dialect with its byte sequences
func (rs *ReceiptService) CommandSets() []CommandSetInfo {
	ids := commandset.IDs()
	out := make([]CommandSetInfo, 0, len(ids))
	for _, id := range ids {
		table := id.Table()
		cmds := make(map[string]string)
		for _, c := range commandset.Commands() {
			cmds[c.String()] = hex.EncodeToString(table.Bytes(c))
		}
		out = append(out, CommandSetInfo{
			Name:     id.String(),
			Default:  id == commandset.Default,
			Commands: cmds,
		})
	}
	return out
}

// CodePages lists the supported text encodings
func (rs *ReceiptService) CodePages() []string {
	return receipt.EncodingNames()
}
