package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/drawdb-mcp/agent/contract"
	progressx "github.com/tanpawarit/drawdb-mcp/agent/progress"
)

const (
	ToolAddType = "add_type"

	commandAddType = "addType"
	progressTotal  = 100
)

const addTypeDescription = "Add a new custom composite TYPE to the diagram (PostgreSQL). " +
	"Custom types define structured data types with multiple fields, similar to structs or objects."

var _ Tool = (*AddTypeTool)(nil)

type AddTypeOption func(*AddTypeTool)

func WithIDGenerator(newID func() string) AddTypeOption {
	return func(t *AddTypeTool) {
		if newID != nil {
			t.newID = newID
		}
	}
}

func WithLogger(logger zerolog.Logger) AddTypeOption {
	return func(t *AddTypeTool) {
		t.logger = logger
	}
}

// AddTypeTool adds a composite type to the diagram open in the DrawDB frontend.
// It holds no per-call state and is safe for concurrent use.
type AddTypeTool struct {
	remote contractx.RemoteClient
	newID  func() string
	logger zerolog.Logger
	schema *inputSchema
	info   *schema.ToolInfo
}

func NewAddTypeTool(remote contractx.RemoteClient, opts ...AddTypeOption) (*AddTypeTool, error) {
	if remote == nil {
		return nil, errors.New("remote client is required")
	}

	in, err := newInputSchema(ToolAddType, &contractx.AddTypeInput{})
	if err != nil {
		return nil, err
	}
	info, err := toolInfo(ToolAddType, addTypeDescription, in.Raw())
	if err != nil {
		return nil, err
	}

	t := &AddTypeTool{
		remote: remote,
		newID:  uuid.NewString,
		logger: log.Logger.With().Str("tool", ToolAddType).Logger(),
		schema: in,
		info:   info,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

func (t *AddTypeTool) Name() string { return ToolAddType }

func (t *AddTypeTool) Description() string { return addTypeDescription }

func (t *AddTypeTool) InputSchema() json.RawMessage { return t.schema.Raw() }

func (t *AddTypeTool) Info() *schema.ToolInfo { return t.info }

// Execute runs the tool with the progress reporter carried by ctx.
func (t *AddTypeTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	return t.Call(ctx, args, progressx.FromContext(ctx))
}

// Call validates raw arguments against the input schema before running AddType.
// Arguments that do not match never reach the remote.
func (t *AddTypeTool) Call(ctx context.Context, args json.RawMessage, progress contractx.ProgressReporter) (contractx.AddTypeResult, error) {
	if err := t.schema.Validate(args); err != nil {
		t.logger.Warn().Err(err).Msg("Rejected add_type arguments")
		return contractx.AddTypeResult{}, err
	}

	var input contractx.AddTypeInput
	if len(args) > 0 {
		if err := json.Unmarshal(args, &input); err != nil {
			return contractx.AddTypeResult{}, fmt.Errorf("%w: decode arguments: %v", contractx.ErrValidation, err)
		}
	}
	return t.AddType(ctx, input, progress)
}

// AddType sends one addType command for input. Any failure is logged and returned
// unchanged; nothing is retried or rolled back.
func (t *AddTypeTool) AddType(ctx context.Context, input contractx.AddTypeInput, progress contractx.ProgressReporter) (contractx.AddTypeResult, error) {
	if progress == nil {
		progress = progressx.Noop{}
	}

	result, err := t.addType(ctx, input, progress)
	if err != nil {
		t.logger.Error().Err(err).Str("type", input.Name).Msg("Failed to add type")
		return contractx.AddTypeResult{}, err
	}

	t.logger.Info().Str("type_id", result.TypeID).Msgf("Type \"%s\" added successfully", input.Name)
	return result, nil
}

func (t *AddTypeTool) addType(ctx context.Context, input contractx.AddTypeInput, progress contractx.ProgressReporter) (contractx.AddTypeResult, error) {
	if !t.remote.IsConnected() {
		return contractx.AddTypeResult{}, contractx.ErrNotConnected
	}

	if err := progress.Report(ctx, 10, progressTotal); err != nil {
		return contractx.AddTypeResult{}, err
	}

	fields := make([]contractx.Field, len(input.Fields))
	copy(fields, input.Fields)

	def := contractx.TypeDefinition{
		ID:      t.newID(),
		Name:    input.Name,
		Fields:  fields,
		Comment: input.Comment,
	}

	if err := progress.Report(ctx, 50, progressTotal); err != nil {
		return contractx.AddTypeResult{}, err
	}

	if err := t.remote.SendCommand(ctx, commandAddType, contractx.CommandPayload{
		Data:         def,
		AddToHistory: true,
	}); err != nil {
		return contractx.AddTypeResult{}, err
	}

	// The type is already applied; a lost final update is only logged.
	if err := progress.Report(ctx, 100, progressTotal); err != nil {
		t.logger.Warn().Err(err).Str("type_id", def.ID).Msg("Final progress update not delivered")
	}

	return contractx.AddTypeResult{
		Success: true,
		Message: fmt.Sprintf("Type \"%s\" added successfully with %d fields", input.Name, len(fields)),
		TypeID:  def.ID,
		Name:    input.Name,
		Fields:  fields,
	}, nil
}
