package approval

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"zerox-swap/pkg/chain"
	"zerox-swap/pkg/types"
)

// State is the terminal outcome of one allowance reconciliation.
type State string

const (
	// StateAlreadyApproved means the existing allowance already covers the
	// sell amount; no transaction was needed.
	StateAlreadyApproved State = "ALREADY_APPROVED"
	// StateSimulationFailed means the approval dry-run was rejected by chain
	// state; nothing was submitted and the token remains unapproved.
	StateSimulationFailed State = "SIMULATION_FAILED"
	// StateSubmissionFailed means the approval could not be sent.
	StateSubmissionFailed State = "SUBMISSION_FAILED"
	// StateConfirmed means the approval was mined successfully.
	StateConfirmed State = "CONFIRMED"
	// StateConfirmationFailed means the approval was submitted but waiting
	// for its receipt failed or timed out.
	StateConfirmationFailed State = "CONFIRMATION_FAILED"
)

// Approver is the slice of token behavior the coordinator needs: allowance
// read, dry-run, submit, and wait. *chain.ERC20 satisfies it.
type Approver interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	SimulateApprove(ctx context.Context, spender common.Address, amount *big.Int) (uint64, error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int, gasLimit uint64) (*ethtypes.Transaction, error)
	WaitConfirmed(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error)
}

// Result reports how the reconciliation ended. Err is set for the failure
// states and carries the underlying cause. CurrentAllowance is the on-chain
// reading taken before approving, when the read succeeded.
type Result struct {
	State            State          `json:"state"`
	Spender          common.Address `json:"spender,omitempty"`
	CurrentAllowance *big.Int       `json:"currentAllowance,omitempty"`
	TxHash           string         `json:"txHash,omitempty"`
	Err              error          `json:"-"`
}

// Coordinator decides whether the taker must authorize a spender before the
// swap can execute, and performs the approval when it must.
type Coordinator struct {
	token Approver
	taker common.Address
}

// NewCoordinator creates a coordinator for the sell token on the taker's
// behalf.
func NewCoordinator(token Approver, taker common.Address) *Coordinator {
	return &Coordinator{token: token, taker: taker}
}

// Reconcile inspects the price response's allowance issue and resolves it.
// A nil issue means the spender is already authorized and no transaction is
// sent. Otherwise the coordinator reads the taker's current on-chain
// allowance for the spender, then approves the spender for the maximum
// allowance, simulating first: a failed simulation prevents submission.
func (c *Coordinator) Reconcile(ctx context.Context, issue *types.AllowanceIssue) *Result {
	if issue == nil {
		return &Result{State: StateAlreadyApproved}
	}

	spender := common.HexToAddress(issue.Spender)

	// The decision is driven by the price response; the on-chain reading is
	// for the operator's benefit, so a failed read does not block the run.
	current, err := c.token.Allowance(ctx, c.taker, spender)
	if err != nil {
		current = nil
	}

	gas, err := c.token.SimulateApprove(ctx, spender, chain.MaxUint256)
	if err != nil {
		return &Result{State: StateSimulationFailed, Spender: spender, CurrentAllowance: current, Err: err}
	}

	tx, err := c.token.Approve(ctx, spender, chain.MaxUint256, gas)
	if err != nil {
		return &Result{State: StateSubmissionFailed, Spender: spender, CurrentAllowance: current, Err: err}
	}

	if _, err := c.token.WaitConfirmed(ctx, tx); err != nil {
		return &Result{
			State:            StateConfirmationFailed,
			Spender:          spender,
			CurrentAllowance: current,
			TxHash:           tx.Hash().Hex(),
			Err:              err,
		}
	}

	return &Result{
		State:            StateConfirmed,
		Spender:          spender,
		CurrentAllowance: current,
		TxHash:           tx.Hash().Hex(),
	}
}
