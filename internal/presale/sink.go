package presale

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"airdropLedger/internal/chain"
	"airdropLedger/internal/loader"
)

// ErrNoSigner is returned when a write is attempted on a read-only sink.
var ErrNoSigner = errors.New("no signer configured")

// Contract is the subset of bind.BoundContract the sink uses.
type Contract interface {
	Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
	Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
}

// Miner waits for a submitted transaction to be mined successfully.
type Miner interface {
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

var (
	_ loader.Sink        = (*Sink)(nil)
	_ loader.UserCounter = (*Sink)(nil)
	_ loader.ClaimLookup = (*Sink)(nil)
)

// Sink loads claims into the airdrop contract and reads its totals.
type Sink struct {
	contract Contract
	miner    Miner
	signer   *bind.TransactOpts
}

// NewSink builds a sink over contract. signer may be nil for read-only use.
func NewSink(contract Contract, miner Miner, signer *bind.TransactOpts) *Sink {
	return &Sink{contract: contract, miner: miner, signer: signer}
}

// NewContractSink binds the airdrop contract at address on client.
func NewContractSink(client *chain.Client, address common.Address, signer *bind.TransactOpts) (*Sink, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, err
	}
	return NewSink(client.BoundContract(address, parsed), client, signer), nil
}

// NewSigner builds transact options from a hex private key.
func NewSigner(privateKeyHex string, chainID *big.Int) (*bind.TransactOpts, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return bind.NewKeyedTransactorWithChainID(key, chainID)
}

// SubmitBatch calls loadClaims with one chunk and waits for it to be mined.
func (s *Sink) SubmitBatch(ctx context.Context, addresses []string, amounts []string) (loader.Confirmation, error) {
	if s.signer == nil {
		return loader.Confirmation{}, ErrNoSigner
	}
	if len(addresses) != len(amounts) {
		return loader.Confirmation{}, fmt.Errorf("%w: %d addresses, %d amounts", loader.ErrLengthMismatch, len(addresses), len(amounts))
	}

	users, err := chain.ParseAddresses(addresses)
	if err != nil {
		return loader.Confirmation{}, err
	}
	if len(users) != len(addresses) {
		return loader.Confirmation{}, fmt.Errorf("%w: blank address in batch", loader.ErrLengthMismatch)
	}
	values := make([]*big.Int, 0, len(amounts))
	for _, amount := range amounts {
		value, ok := new(big.Int).SetString(amount, 10)
		if !ok || value.Sign() < 0 {
			return loader.Confirmation{}, fmt.Errorf("invalid amount: %q", amount)
		}
		values = append(values, value)
	}

	opts := *s.signer
	opts.Context = ctx
	tx, err := s.contract.Transact(&opts, "loadClaims", users, values)
	if err != nil {
		return loader.Confirmation{}, fmt.Errorf("send loadClaims: %w", err)
	}
	receipt, err := s.miner.WaitMined(ctx, tx)
	if err != nil {
		return loader.Confirmation{}, fmt.Errorf("wait loadClaims %s: %w", tx.Hash().Hex(), err)
	}

	confirmation := loader.Confirmation{
		TxHash:  tx.Hash().Hex(),
		GasUsed: receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		confirmation.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return confirmation, nil
}

// TotalLoaded reads the contract's running total of loaded amounts.
func (s *Sink) TotalLoaded(ctx context.Context) (*big.Int, error) {
	return s.callUint(ctx, "totalLoaded")
}

// TotalUsers reads the number of users the contract has claims for.
func (s *Sink) TotalUsers(ctx context.Context) (*big.Int, error) {
	return s.callUint(ctx, "totalUsers")
}

// LoadedAmount reads the contributed amount recorded for address.
func (s *Sink) LoadedAmount(ctx context.Context, address string) (*big.Int, error) {
	user, err := chain.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	var out []interface{}
	if err := s.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getClaimInfo", user); err != nil {
		return nil, fmt.Errorf("call getClaimInfo: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("getClaimInfo returned no values")
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getClaimInfo type %T", out[0])
	}
	return value, nil
}

func (s *Sink) callUint(ctx context.Context, method string) (*big.Int, error) {
	var out []interface{}
	if err := s.contract.Call(&bind.CallOpts{Context: ctx}, &out, method); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s returned %d values", method, len(out))
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s type %T", method, out[0])
	}
	return value, nil
}
