package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pooled-savings-ledger/internal/domain/shared"
	"github.com/pooled-savings-ledger/internal/ledger_processor/service"
	"github.com/pooled-savings-ledger/internal/platform/messaging/producers"
)

// CommandHandler handles ledger command messages from Kafka
type CommandHandler struct {
	commandService service.CommandService
	producer       producers.DeadLetterPublisher
	logger         *slog.Logger
}

func NewCommandHandler(
	logger *slog.Logger,
	commandService service.CommandService,
	producer producers.DeadLetterPublisher,
) *CommandHandler {
	return &CommandHandler{
		commandService: commandService,
		producer:       producer,
		logger:         logger,
	}
}

// HandleMessage returns nil when the offset may be committed. Undecodable messages are parked
// on the DLQ; infrastructure failures are returned so the message is redelivered.
func (h *CommandHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var cmd shared.LedgerCommand
	if err := json.Unmarshal(value, &cmd); err != nil {
		const unmarshalErrorMsg = "Failed to unmarshal ledger command from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key))
				return nil
			}
		}
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	outcome, err := h.commandService.ProcessCommand(ctx, &cmd)
	if err != nil {
		return fmt.Errorf("processing command %s failed: %w", cmd.CommandID.String(), err)
	}

	h.logger.Debug("Ledger command handled",
		"command_id", cmd.CommandID.String(),
		"outcome", outcome,
	)
	return nil
}
