package contract

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

// Action names accepted by Dispatch, with their payload shapes.
const (
	// ActionCreateInstance payload: owner address. Runs on the registry.
	ActionCreateInstance = "create_instance"
	// ActionTransferOwnership payload: new owner address.
	ActionTransferOwnership = "transfer_ownership"
	// ActionDeposit payload: amount.
	ActionDeposit = "deposit"
	// ActionWithdraw payload: amount.
	ActionWithdraw = "withdraw"
	// ActionClaimRewards takes no payload.
	ActionClaimRewards = "claim_rewards"
	// ActionSetRewardRate payload: rate per second.
	ActionSetRewardRate = "set_reward_rate"
	// ActionOwnerDeposit payload: amount.
	ActionOwnerDeposit = "owner_deposit"
	// ActionOwnerWithdraw payload: amount.
	ActionOwnerWithdraw = "owner_withdraw"
	// ActionCastVote payload: proposalId|support|reason.
	ActionCastVote = "cast_vote"
	// ActionStakeForProposal payload: proposalId|side|amount.
	ActionStakeForProposal = "stake_for_proposal"
	// ActionResolveProposal payload: proposalId|outcome.
	ActionResolveProposal = "resolve_proposal"
	// ActionClaimStake payload: proposalId.
	ActionClaimStake = "claim_stake"
	// ActionReceiptTransfer payload: to|amount. Always refused.
	ActionReceiptTransfer = "receipt_transfer"
)

// Dispatch runs one named action with a pipe-delimited string payload, the
// way a transaction would arrive from outside. instance is ignored for
// create_instance. The returned text is a short human readable result.
func (f *Factory) Dispatch(ctx context.Context, env sdk.Env, instance sdk.Address, action, payload string) (string, error) {
	if action == ActionCreateInstance {
		owner, err := decodeAddressArgs(payload)
		if err != nil {
			return "", err
		}
		l, err := f.CreateInstance(ctx, env, owner)
		if err != nil {
			return "", err
		}
		return l.Address().String(), nil
	}
	l, err := f.Instance(ctx, instance)
	if err != nil {
		return "", err
	}
	return l.dispatch(ctx, env, action, payload)
}

type amountOp func(context.Context, sdk.Env, *uint256.Int) error

func (l *Ledger) amountOps() map[string]amountOp {
	return map[string]amountOp{
		ActionDeposit:       l.Deposit,
		ActionWithdraw:      l.Withdraw,
		ActionOwnerDeposit:  l.OwnerDeposit,
		ActionOwnerWithdraw: l.OwnerWithdraw,
		ActionSetRewardRate: l.SetRewardRate,
	}
}

func (l *Ledger) dispatch(ctx context.Context, env sdk.Env, action, payload string) (string, error) {
	switch action {
	case ActionTransferOwnership:
		to, err := decodeAddressArgs(payload)
		if err != nil {
			return "", err
		}
		if err := l.TransferOwnership(ctx, env, to); err != nil {
			return "", err
		}
		return "owner " + to.String(), nil

	case ActionDeposit, ActionWithdraw, ActionOwnerDeposit, ActionOwnerWithdraw, ActionSetRewardRate:
		amount, err := decodeAmountArgs(payload)
		if err != nil {
			return "", err
		}
		if err := l.amountOps()[action](ctx, env, amount); err != nil {
			return "", err
		}
		return action + " " + amount.Dec(), nil

	case ActionClaimRewards:
		paid, err := l.ClaimRewards(ctx, env)
		if err != nil {
			return "", err
		}
		return "claimed " + paid.Dec(), nil

	case ActionCastVote:
		args, err := decodeCastVoteArgs(payload)
		if err != nil {
			return "", err
		}
		if err := l.CastVote(ctx, env, args.ProposalID, args.Support, args.Reason); err != nil {
			return "", err
		}
		return fmt.Sprintf("voted %s on %d", dao.Direction(args.Support), args.ProposalID), nil

	case ActionStakeForProposal:
		args, err := decodeStakeArgs(payload)
		if err != nil {
			return "", err
		}
		if err := l.StakeForProposal(ctx, env, args.ProposalID, args.Side, args.Amount); err != nil {
			return "", err
		}
		return fmt.Sprintf("staked %s on %d", args.Amount.Dec(), args.ProposalID), nil

	case ActionResolveProposal:
		args, err := decodeResolveArgs(payload)
		if err != nil {
			return "", err
		}
		if err := l.ResolveProposal(ctx, env, args.ProposalID, args.Outcome); err != nil {
			return "", err
		}
		return fmt.Sprintf("resolved %d %s", args.ProposalID, dao.Outcome(args.Outcome)), nil

	case ActionClaimStake:
		id, err := decodeProposalIDArgs(payload)
		if err != nil {
			return "", err
		}
		paid, err := l.ClaimStake(ctx, env, id)
		if err != nil {
			return "", err
		}
		return "paid " + paid.Dec(), nil

	case ActionReceiptTransfer:
		args, err := decodeReceiptTransferArgs(payload)
		if err != nil {
			return "", err
		}
		return "", l.Receipt().Transfer(ctx, env, args.To, args.Amount)

	default:
		return "", fmt.Errorf("%w: %q", dao.ErrUnknownAction, action)
	}
}
