package main

import (
	"context"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/dz0nda/quartz-tezos-contracts/contracts/alephtoken"
	"github.com/dz0nda/quartz-tezos-contracts/contracts/fa2"
	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/scenario"
	"github.com/dz0nda/quartz-tezos-contracts/state"
	"github.com/dz0nda/quartz-tezos-contracts/store"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	env *scenario.Env

	endpoint     string
	accountsFile string
	contractsDir string
	persistency  string
	asName       string

	rootCmd = &cobra.Command{Use: "tzcontracts", Short: "Deploy and operate the aleph token, NFT, permits and sync contracts"}

	deployOwner string
	deployCmd   = &cobra.Command{
		Use:   "deploy",
		Short: "deploy the whole contract set",
		Long:  "originate permits, aleph_token, sync, permits and nft, register the token contracts as permit consumers and record the addresses. With --owner the contracts are then declared to the owner, who takes them over with claim",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			as, err := setup()
			if err != nil {
				return err
			}
			owner := as.Address
			if deployOwner != "" {
				if owner, err = resolveAddress(deployOwner); err != nil {
					return err
				}
			}
			d, err := scenario.DeployAll(cmd.Context(), env.Executor, env.Scripts, owner, as)
			if err != nil {
				return err
			}
			if err = d.Save(state.NewChainPersistency(persistency)); err != nil {
				return err
			}
			return printAddresses(d)
		},
	}

	claimCmd = &cobra.Command{
		Use:   "claim",
		Short: "claim the ownership of the deployed contracts, as the declared owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, as, err := deployment()
			if err != nil {
				return err
			}
			return d.ClaimOwnership(cmd.Context(), executor.As(as))
		},
	}

	syncCmd = &cobra.Command{Use: "sync", Short: "call the sync contract"}

	syncEmitCmd = &cobra.Command{
		Use:   "emit [message]",
		Short: "emit a SyncEvent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, as, err := deployment()
			if err != nil {
				return err
			}
			receipt, err := d.Sync.DoEmit(cmd.Context(), args[0], executor.As(as))
			if err != nil {
				return err
			}
			fmt.Printf("emitted in %s\n", receipt.Hash)
			return nil
		},
	}

	syncMessageCmd = &cobra.Command{
		Use:   "message [type, content]",
		Short: "emit a MessageEvent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, as, err := deployment()
			if err != nil {
				return err
			}
			receipt, err := d.Sync.DoMessage(cmd.Context(), args[0], args[1], executor.As(as))
			if err != nil {
				return err
			}
			fmt.Printf("emitted in %s\n", receipt.Hash)
			return nil
		},
	}

	tokenCmd = &cobra.Command{Use: "token", Short: "operate the aleph token"}

	tokenMintCmd = &cobra.Command{
		Use:     "mint [to, amount]",
		Short:   "mint tokens, owner only",
		Example: "mint bob 1000",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, as, err := deployment()
			if err != nil {
				return err
			}
			to, amount, err := parseTransfer(args)
			if err != nil {
				return err
			}
			_, err = d.AlephToken.Mint(cmd.Context(), to, amount, executor.As(as))
			return err
		},
	}

	tokenTransferCmd = &cobra.Command{
		Use:   "transfer [to, amount]",
		Short: "transfer tokens of the signing account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, as, err := deployment()
			if err != nil {
				return err
			}
			to, amount, err := parseTransfer(args)
			if err != nil {
				return err
			}
			tps := []fa2.TransferParam{fa2.Transfer(as.Address, to, alephtoken.TokenID, amount)}
			_, err = d.AlephToken.Transfer(cmd.Context(), tps, executor.As(as))
			return err
		},
	}

	tokenBalanceCmd = &cobra.Command{
		Use:   "balance [account]",
		Short: "print the token balance of an account name or address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := deployment()
			if err != nil {
				return err
			}
			owner, err := resolveAddress(args[0])
			if err != nil {
				return err
			}
			balance, _, err := d.AlephToken.GetLedgerValue(cmd.Context(), owner)
			if err != nil {
				return err
			}
			fmt.Println(balance)
			return nil
		},
	}

	storageCmd = &cobra.Command{
		Use:   "storage [contract]",
		Short: "dump the storage of a deployed contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := deployment()
			if err != nil {
				return err
			}
			storage, err := d.Storage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if dumpStorage {
				spew.Fdump(os.Stdout, storage)
				return nil
			}
			fmt.Println(storage.Text())
			return nil
		},
	}
	dumpStorage bool

	eventsDB     string
	eventsFilter store.Filter
	eventsCmd    = &cobra.Command{
		Use:   "events",
		Short: "list the events stored by syncwatcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := store.Open(eventsDB)
			if err != nil {
				return err
			}
			defer events.Close()
			records, err := events.List(eventsFilter)
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Printf("%d %s %s %s\n", r.Level, r.OperationHash, r.Tag, r.Payload.Text())
			}
			return nil
		},
	}

	generateCmd = &cobra.Command{
		Use:   "generate [name]",
		Short: "generate an account in the accounts file format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := tezos.GenerateKey()
			if err != nil {
				return err
			}
			out, err := tezos.Accounts{args[0]: tezos.NewAccount(args[0], key)}.Marshal()
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
)

// setup connects to the node and returns the signing account.
func setup() (*tezos.Account, error) {
	var err error
	if env, err = scenario.NewEnv(endpoint, accountsFile, contractsDir); err != nil {
		return nil, err
	}
	return env.Accounts.Get(asName)
}

// deployment loads the contracts recorded by deploy.
func deployment() (*scenario.Deployment, *tezos.Account, error) {
	as, err := setup()
	if err != nil {
		return nil, nil, err
	}
	d := scenario.NewDeployment(env.Executor, env.Scripts)
	if err = d.Load(state.NewChainPersistency(persistency)); err != nil {
		return nil, nil, err
	}
	return d, as, nil
}

// resolveAddress accepts an account name or an address.
func resolveAddress(s string) (tezos.Address, error) {
	if acc, err := env.Accounts.Get(s); err == nil {
		return acc.Address, nil
	}
	addr, err := tezos.ParseAddress(s)
	if err != nil {
		return addr, errors.Errorf("%s is neither a known account nor an address", s)
	}
	return addr, nil
}

func parseTransfer(args []string) (tezos.Address, tezos.Nat, error) {
	to, err := resolveAddress(args[0])
	if err != nil {
		return to, tezos.Nat{}, err
	}
	amount, err := tezos.ParseNat(args[1])
	return to, amount, err
}

func printAddresses(d *scenario.Deployment) error {
	addrs, err := d.Addresses()
	if err != nil {
		return err
	}
	for _, name := range scenario.Names {
		fmt.Printf("%-20s %s\n", name, addrs[name])
	}
	return nil
}

func Execute(ctx context.Context) error {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", os.Getenv(scenario.EnvEndpoint), "tezos node rpc url")
	rootCmd.PersistentFlags().StringVar(&accountsFile, "accounts", "accounts.yaml", "accounts file")
	rootCmd.PersistentFlags().StringVar(&contractsDir, "contracts", "contracts", "directory of the compiled contracts")
	rootCmd.PersistentFlags().StringVar(&persistency, "persistency", "./state.json", "file where deployed contracts are recorded")
	rootCmd.PersistentFlags().StringVar(&asName, "as", "alice", "name of the signing account")

	deployCmd.Flags().StringVar(&deployOwner, "owner", "", "owner of the contracts, defaults to the signing account. Another owner must run claim")
	storageCmd.Flags().BoolVar(&dumpStorage, "dump", false, "dump the decoded value instead of printing micheline")

	eventsCmd.Flags().StringVar(&eventsDB, "db", "./events.db", "event database")
	eventsCmd.Flags().StringVar(&eventsFilter.Tag, "tag", "", "only list events with this tag")
	eventsCmd.Flags().Int64Var(&eventsFilter.FromLevel, "from", 0, "first level to list")
	eventsCmd.Flags().IntVar(&eventsFilter.Limit, "limit", 0, "maximum number of events")

	syncCmd.AddCommand(syncEmitCmd, syncMessageCmd)
	tokenCmd.AddCommand(tokenMintCmd, tokenTransferCmd, tokenBalanceCmd)
	rootCmd.AddCommand(deployCmd, claimCmd, syncCmd, tokenCmd, storageCmd, eventsCmd, generateCmd)

	return rootCmd.ExecuteContext(ctx)
}
