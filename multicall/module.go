// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package multicall

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/math"
	"github.com/luxfi/multicall/bridge"
	"github.com/luxfi/multicall/contract"
	"github.com/luxfi/multicall/modules"
	"github.com/luxfi/multicall/precompileconfig"
	"github.com/luxfi/multicall/registry"
	"github.com/luxfi/multicall/scenario"
)

var (
	_ contract.Configurator   = (*userConfigurator)(nil)
	_ contract.Configurator   = (*operatorConfigurator)(nil)
	_ precompileconfig.Config = (*UserConfig)(nil)
	_ precompileconfig.Config = (*OperatorConfig)(nil)
)

// Config keys used in json config files.
const (
	UserConfigKey     = "userExecutorConfig"
	OperatorConfigKey = "operatorExecutorConfig"
)

// Contract addresses on the C-Chain. The user executor's account holds the
// shared settings and the gateway's token balances and allowances.
var (
	UserExecutorAddress     = common.HexToAddress(registry.UserExecutorCChain)
	OperatorExecutorAddress = common.HexToAddress(registry.OperatorExecutorCChain)
	SettingsAddress         = UserExecutorAddress
)

var (
	UserExecutorPrecompile     = NewUserExecutor(SettingsAddress)
	OperatorExecutorPrecompile = NewOperatorExecutor(SettingsAddress)

	UserModule = modules.Module{
		ConfigKey:    UserConfigKey,
		Address:      UserExecutorAddress,
		Contract:     UserExecutorPrecompile,
		Configurator: &userConfigurator{},
	}
	OperatorModule = modules.Module{
		ConfigKey:    OperatorConfigKey,
		Address:      OperatorExecutorAddress,
		Contract:     OperatorExecutorPrecompile,
		Configurator: &operatorConfigurator{},
	}
)

var (
	ErrMissingAdmin    = errors.New("admin required")
	ErrInvalidScenario = errors.New("invalid scenario config")
	ErrInvalidFee      = errors.New("invalid fee config")
)

func init() {
	for _, m := range []modules.Module{UserModule, OperatorModule} {
		if err := modules.RegisterModule(m); err != nil {
			panic(err)
		}
	}
}

// FeeConfig is the genesis fee.
type FeeConfig struct {
	BaseAmount *math.HexOrDecimal256 `json:"baseAmount"`
	Receiver   common.Address        `json:"receiver"`
}

// OracleConfig is the genesis oracle binding.
type OracleConfig struct {
	Oracle    common.Address `json:"oracle"`
	BaseToken common.Address `json:"baseToken"`
}

// RelayConfig is the genesis relay binding. The allowance is granted later
// with approveRelay, once the executor holds the mirror asset.
type RelayConfig struct {
	Relay       common.Address `json:"relay"`
	MirrorAsset common.Address `json:"mirrorAsset"`
	Arity       uint8          `json:"arity"`
}

// ScenarioConfig pre-approves one batch shape, given either by fingerprint
// or by the function signatures of its operations in order.
type ScenarioConfig struct {
	Label      string       `json:"label"`
	Hash       *common.Hash `json:"hash,omitempty"`
	Signatures []string     `json:"signatures,omitempty"`
	Disabled   bool         `json:"disabled,omitempty"`
}

// Fingerprint resolves the scenario's fingerprint.
func (c ScenarioConfig) Fingerprint() (common.Hash, error) {
	switch {
	case c.Hash != nil && len(c.Signatures) > 0:
		return common.Hash{}, fmt.Errorf("%w: %q sets both hash and signatures", ErrInvalidScenario, c.Label)
	case c.Hash != nil:
		return *c.Hash, nil
	case len(c.Signatures) == 0:
		return common.Hash{}, fmt.Errorf("%w: %q sets neither hash nor signatures", ErrInvalidScenario, c.Label)
	}
	payloads := make([][]byte, len(c.Signatures))
	for i, sig := range c.Signatures {
		if !contract.IsValidFunctionSignature(sig) {
			return common.Hash{}, fmt.Errorf("%w: %q: bad signature %q", ErrInvalidScenario, c.Label, sig)
		}
		payloads[i] = contract.CalculateFunctionSelector(sig)
	}
	return scenario.FingerprintOfPayloads(payloads)
}

func (c ScenarioConfig) equal(other ScenarioConfig) bool {
	if c.Label != other.Label || c.Disabled != other.Disabled || len(c.Signatures) != len(other.Signatures) {
		return false
	}
	if (c.Hash == nil) != (other.Hash == nil) || (c.Hash != nil && *c.Hash != *other.Hash) {
		return false
	}
	for i := range c.Signatures {
		if c.Signatures[i] != other.Signatures[i] {
			return false
		}
	}
	return true
}

// UserConfig implements the precompileconfig.Config interface for the user
// executor. It seeds the shared settings.
type UserConfig struct {
	Upgrade     precompileconfig.Upgrade `json:"upgrade,omitempty"`
	Admin       common.Address           `json:"admin,omitempty"`
	Routers     []common.Address         `json:"routers,omitempty"`
	Fee         *FeeConfig               `json:"fee,omitempty"`
	Oracle      *OracleConfig            `json:"oracle,omitempty"`
	Relay       *RelayConfig             `json:"relay,omitempty"`
	EventLogger common.Address           `json:"eventLogger,omitempty"`
	Scenarios   []ScenarioConfig         `json:"scenarios,omitempty"`
}

func (c *UserConfig) Key() string {
	return UserConfigKey
}

func (c *UserConfig) Timestamp() *uint64 {
	return c.Upgrade.Timestamp()
}

func (c *UserConfig) IsDisabled() bool {
	return c.Upgrade.Disable
}

func (c *UserConfig) Equal(cfg precompileconfig.Config) bool {
	other, ok := cfg.(*UserConfig)
	if !ok {
		return false
	}
	if !c.Upgrade.Equal(&other.Upgrade) ||
		c.Admin != other.Admin ||
		c.EventLogger != other.EventLogger ||
		!addressesEqual(c.Routers, other.Routers) ||
		!feeEqual(c.Fee, other.Fee) ||
		!ptrEqual(c.Oracle, other.Oracle) ||
		!ptrEqual(c.Relay, other.Relay) ||
		len(c.Scenarios) != len(other.Scenarios) {
		return false
	}
	for i := range c.Scenarios {
		if !c.Scenarios[i].equal(other.Scenarios[i]) {
			return false
		}
	}
	return true
}

func (c *UserConfig) Verify(chainConfig precompileconfig.ChainConfig) error {
	if c.Upgrade.Disable {
		return nil
	}
	if c.Admin == (common.Address{}) {
		return ErrMissingAdmin
	}
	for i, router := range c.Routers {
		if router == (common.Address{}) {
			return fmt.Errorf("router %d: zero address", i)
		}
	}
	if c.Fee != nil && c.Fee.BaseAmount != nil {
		amount := (*big.Int)(c.Fee.BaseAmount)
		if amount.Sign() < 0 || amount.BitLen() > 256 {
			return fmt.Errorf("%w: base amount %s out of range", ErrInvalidFee, amount)
		}
		if amount.Sign() > 0 {
			if c.Fee.Receiver == (common.Address{}) {
				return fmt.Errorf("%w: receiver required", ErrInvalidFee)
			}
			if c.Oracle == nil || c.Oracle.Oracle == (common.Address{}) {
				return fmt.Errorf("%w: oracle required for non-zero fee", ErrInvalidFee)
			}
		}
	}
	if c.Relay != nil && !bridge.RelayArity(c.Relay.Arity).Valid() {
		return fmt.Errorf("%w: %d", bridge.ErrUnknownArity, c.Relay.Arity)
	}
	for _, sc := range c.Scenarios {
		if len(sc.Label) > scenario.MaxLabelLength {
			return fmt.Errorf("%w: %w", ErrInvalidScenario, scenario.ErrLabelTooLong)
		}
		if _, err := sc.Fingerprint(); err != nil {
			return err
		}
	}
	return nil
}

type userConfigurator struct{}

func (*userConfigurator) MakeConfig() precompileconfig.Config {
	return new(UserConfig)
}

// Configure writes [cfg] into the shared settings.
func (*userConfigurator) Configure(
	chainConfig precompileconfig.ChainConfig,
	cfg precompileconfig.Config,
	state contract.StateDB,
	blockContext contract.ConfigurationBlockContext,
) error {
	config, ok := cfg.(*UserConfig)
	if !ok {
		return fmt.Errorf("expected config type %T, got %T: %v", &UserConfig{}, cfg, cfg)
	}
	s := NewSettings(state, SettingsAddress)

	if err := s.SetAdmin(config.Admin); err != nil {
		return err
	}
	if err := s.Routers.SetAllowedRouters(config.Routers); err != nil {
		return err
	}
	if config.Oracle != nil {
		if err := s.Fees.SetOracle(config.Oracle.Oracle, config.Oracle.BaseToken); err != nil {
			return err
		}
	}
	if config.Fee != nil {
		amount := new(uint256.Int)
		if config.Fee.BaseAmount != nil {
			amount, _ = uint256.FromBig((*big.Int)(config.Fee.BaseAmount))
		}
		if err := s.Fees.SetFee(amount, config.Fee.Receiver); err != nil {
			return err
		}
	}
	if config.Relay != nil {
		// Configuration has no host to call. Moving an approved pair is
		// refused with bridge.ErrApprovalOutstanding; revoke it through
		// setRelay or setMirrorAsset first.
		if _, err := s.Bridge.SetRelay(nil, config.Relay.Relay, bridge.RelayArity(config.Relay.Arity), 0); err != nil {
			return err
		}
		if _, err := s.Bridge.SetMirrorAsset(nil, config.Relay.MirrorAsset, 0); err != nil {
			return err
		}
	}
	s.SetEventLogger(config.EventLogger)
	for _, sc := range config.Scenarios {
		fp, err := sc.Fingerprint()
		if err != nil {
			return err
		}
		if err := s.Scenarios.Register(fp, sc.Label); err != nil {
			return err
		}
		if sc.Disabled {
			if err := s.Scenarios.SetEnabled(fp, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// OperatorConfig implements the precompileconfig.Config interface for the
// operator executor.
type OperatorConfig struct {
	Upgrade   precompileconfig.Upgrade `json:"upgrade,omitempty"`
	Operators []common.Address         `json:"operators,omitempty"`
}

func (c *OperatorConfig) Key() string {
	return OperatorConfigKey
}

func (c *OperatorConfig) Timestamp() *uint64 {
	return c.Upgrade.Timestamp()
}

func (c *OperatorConfig) IsDisabled() bool {
	return c.Upgrade.Disable
}

func (c *OperatorConfig) Equal(cfg precompileconfig.Config) bool {
	other, ok := cfg.(*OperatorConfig)
	if !ok {
		return false
	}
	return c.Upgrade.Equal(&other.Upgrade) && addressesEqual(c.Operators, other.Operators)
}

func (c *OperatorConfig) Verify(chainConfig precompileconfig.ChainConfig) error {
	for i, op := range c.Operators {
		if op == (common.Address{}) {
			return fmt.Errorf("operator %d: zero address", i)
		}
	}
	return nil
}

type operatorConfigurator struct{}

func (*operatorConfigurator) MakeConfig() precompileconfig.Config {
	return new(OperatorConfig)
}

func (*operatorConfigurator) Configure(
	chainConfig precompileconfig.ChainConfig,
	cfg precompileconfig.Config,
	state contract.StateDB,
	blockContext contract.ConfigurationBlockContext,
) error {
	config, ok := cfg.(*OperatorConfig)
	if !ok {
		return fmt.Errorf("expected config type %T, got %T: %v", &OperatorConfig{}, cfg, cfg)
	}
	s := NewSettings(state, SettingsAddress)
	for _, op := range config.Operators {
		if err := s.Operators.SetOperator(op, true); err != nil {
			return err
		}
	}
	return nil
}

func addressesEqual(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func feeEqual(a, b *FeeConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Receiver != b.Receiver {
		return false
	}
	if a.BaseAmount == nil || b.BaseAmount == nil {
		return a.BaseAmount == b.BaseAmount
	}
	return (*big.Int)(a.BaseAmount).Cmp((*big.Int)(b.BaseAmount)) == 0
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
