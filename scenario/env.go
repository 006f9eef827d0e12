package scenario

import (
	"context"
	"os"

	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/rpc"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Environment variables read by NewEnvFromEnviron.
const (
	EnvEndpoint  = "TEZOS_ENDPOINT"
	EnvAccounts  = "TEZOS_ACCOUNTS"
	EnvContracts = "TEZOS_CONTRACTS"
)

// ErrNoEndpoint is returned when no node is configured.
var ErrNoEndpoint = errors.New(EnvEndpoint + " is not set")

// Env is a node with funded accounts and compiled contracts.
type Env struct {
	Executor *executor.Executor
	Accounts tezos.Accounts
	Scripts  executor.ScriptDir
}

func NewEnv(endpoint, accountsFile, contractsDir string) (*Env, error) {
	client, err := rpc.NewClient(endpoint, nil)
	if err != nil {
		return nil, err
	}
	accounts, err := tezos.LoadAccounts(accountsFile)
	if err != nil {
		return nil, err
	}
	return &Env{
		Executor: executor.New(client),
		Accounts: accounts,
		Scripts:  executor.ScriptDir(contractsDir),
	}, nil
}

// NewEnvFromEnviron configures an Env from TEZOS_ENDPOINT, TEZOS_ACCOUNTS
// (default accounts.yaml) and TEZOS_CONTRACTS (default contracts).
func NewEnvFromEnviron() (*Env, error) {
	endpoint := os.Getenv(EnvEndpoint)
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	accounts := os.Getenv(EnvAccounts)
	if accounts == "" {
		accounts = "accounts.yaml"
	}
	contracts := os.Getenv(EnvContracts)
	if contracts == "" {
		contracts = "contracts"
	}
	return NewEnv(endpoint, accounts, contracts)
}

// Account returns the named account, panicking when it is not configured.
func (e *Env) Account(name string) *tezos.Account {
	acc, err := e.Accounts.Get(name)
	if err != nil {
		panic(err)
	}
	return acc
}

// NewFundedAccount generates an account named name and sends it amount
// from funder. It is revealed by its first operation.
func (e *Env) NewFundedAccount(ctx context.Context, name string, funder *tezos.Account, amount tezos.Tez) (*tezos.Account, error) {
	key, err := tezos.GenerateKey()
	if err != nil {
		return nil, err
	}
	acc := tezos.NewAccount(name, key)
	if _, err := e.Executor.Transfer(ctx, acc.Address, executor.Parameters{As: funder, Amount: amount}); err != nil {
		return nil, errors.Wrapf(err, "could not fund %s", name)
	}
	e.Accounts.Add(acc)
	log.Info().Str("account", acc.String()).Str("amount", amount.String()).Msg("account funded")
	return acc, nil
}

// BlockTime returns the timestamp of the block that included receipt, which
// is NOW for the contracts it called.
func (e *Env) BlockTime(ctx context.Context, receipt *executor.Receipt) (tezos.Timestamp, error) {
	header, err := e.Executor.Client().GetHeader(ctx, rpc.BlockHashID(receipt.Block))
	if err != nil {
		return tezos.Timestamp{}, err
	}
	return tezos.NewTimestamp(header.Timestamp), nil
}
