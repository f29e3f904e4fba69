package presale

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"airdropLedger/internal/aggregate"
	"airdropLedger/internal/model"
)

// LogFilterer is the subset of the chain client the event source needs.
type LogFilterer interface {
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// Source reads presale contract events for a block window.
type Source struct {
	chain    LogFilterer
	contract common.Address
	abi      abi.ABI
}

// NewSource builds an event source for the presale contract at address.
func NewSource(chain LogFilterer, contract common.Address) (*Source, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, err
	}
	return &Source{chain: chain, contract: contract, abi: parsed}, nil
}

// GetEvents returns every event the contract emitted in [fromBlock, toBlock].
// Events other than Buy carry only their name and identity.
func (s *Source) GetEvents(ctx context.Context, fromBlock, toBlock uint64) ([]model.RawEvent, error) {
	logs, err := s.chain.FilterLogs(ctx, fromBlock, toBlock, []common.Address{s.contract}, nil)
	if err != nil {
		return nil, err
	}

	events := make([]model.RawEvent, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}
		event, err := s.decode(log)
		if err != nil {
			return nil, fmt.Errorf("decode log %s:%d: %w", log.TxHash.Hex(), log.Index, err)
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *Source) decode(log types.Log) (model.RawEvent, error) {
	event := model.RawEvent{
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
	}
	if len(log.Topics) == 0 {
		return event, nil
	}

	definition, err := s.abi.EventByID(log.Topics[0])
	if err != nil {
		// Not part of the presale ABI; keep the event so it is counted as ignored.
		return event, nil
	}
	event.EventName = definition.Name
	if definition.Name != EventBuy {
		return event, nil
	}

	if len(log.Topics) < 2 {
		return event, fmt.Errorf("buy log missing user topic")
	}
	values, err := definition.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return event, fmt.Errorf("unpack buy data: %w", err)
	}
	if len(values) != 1 {
		return event, fmt.Errorf("unexpected buy data length: %d", len(values))
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return event, fmt.Errorf("unexpected buy amount type %T", values[0])
	}

	event.Fields = map[string]string{
		aggregate.FieldUser:   common.BytesToAddress(log.Topics[1].Bytes()).Hex(),
		aggregate.FieldAmount: amount.String(),
	}
	return event, nil
}
