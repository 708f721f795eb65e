package simulate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethpandaops/execution-simulator/pkg/errs"
)

// BlockTag is a symbolic block reference accepted by the JSON-RPC API.
type BlockTag string

const (
	BlockTagLatest    BlockTag = "latest"
	BlockTagEarliest  BlockTag = "earliest"
	BlockTagSafe      BlockTag = "safe"
	BlockTagFinalized BlockTag = "finalized"
)

func (t BlockTag) Valid() bool {
	switch t {
	case BlockTagLatest, BlockTagEarliest, BlockTagSafe, BlockTagFinalized:
		return true
	default:
		return false
	}
}

// BlockContext is a resolved block reference, either a concrete number or a
// tag. Exactly one of the two is set.
type BlockContext struct {
	number *uint64
	tag    BlockTag
}

// ResolveBlockContext turns the request's optional blockNumber/blockTag pair
// into a BlockContext. The two fields are mutually exclusive; when neither
// is set the context defaults to the latest block.
func ResolveBlockContext(blockNumber *string, blockTag *BlockTag) (BlockContext, error) {
	if blockNumber != nil && blockTag != nil {
		return BlockContext{}, errs.NewService(errs.ServiceInvalidBlockContext,
			"cannot specify both blockNumber and blockTag, they are mutually exclusive")
	}

	if blockNumber != nil {
		number, err := parseBlockNumber(*blockNumber)
		if err != nil {
			return BlockContext{}, errs.NewServicef(errs.ServiceInvalidBlockContext,
				"invalid block number %q", *blockNumber)
		}

		return BlockContext{number: &number}, nil
	}

	if blockTag != nil {
		if !blockTag.Valid() {
			return BlockContext{}, errs.NewServicef(errs.ServiceInvalidBlockContext,
				"invalid block tag %q", string(*blockTag))
		}

		return BlockContext{tag: *blockTag}, nil
	}

	return BlockContext{tag: BlockTagLatest}, nil
}

// parseBlockNumber accepts 0x-prefixed hex or plain decimal.
func parseBlockNumber(raw string) (uint64, error) {
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		return strconv.ParseUint(raw[2:], 16, 64)
	}

	return strconv.ParseUint(raw, 10, 64)
}

// Param renders the JSON-RPC block parameter.
func (c BlockContext) Param() string {
	if c.number != nil {
		return fmt.Sprintf("0x%x", *c.number)
	}

	return string(c.tag)
}
