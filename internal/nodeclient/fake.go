package nodeclient

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Fake is an in-memory QueriesClient backed by per-height fixtures,
// grounded on the teacher's test_backend.go / test_helper.go
// fake-dependency convention (used throughout the wider retrieval pack
// in place of a live node or database). Tests populate Blocks,
// TxEvents, etc. keyed by height before exercising the preprocessor or
// pool against it.
type Fake struct {
	mu sync.Mutex

	Consensus *ConsensusInfo
	Blocks    map[uint64]*BlockInfo
	Certs     map[uint64]*BlockCertificates
	TxEvents  map[uint64][]BlockItemSummary
	Items     map[uint64][]BlockItem
	ChainParams map[uint64]*ChainParameters
	Tokenomics  map[uint64]*TokenomicsInfo
	Special     map[uint64][]SpecialEvent
	Bakers      map[uint64][]uint64
	PoolInfos   map[uint64]map[uint64]*PoolInfo
	RewardPeriodBakers map[uint64][]RewardPeriodBakerInfo
	PassiveDelegators  map[uint64]*PassiveDelegatorsRewardPeriod
	PassiveDelegation  map[uint64]*PassiveDelegationInfo
	Elections   map[uint64]*ElectionInfo
	Instances   map[uint64]map[string]*InstanceInfo
	Modules     map[string]*ModuleSource
	Cis0        map[string]bool
	Accounts    map[uint64][]string
	AccountInfo map[string]*AccountInfo

	// FailHeights, if set, makes the height-keyed calls for that height
	// return err. GetModuleSource, CIS0Supports and GetAccountInfo ignore
	// it, and GetConsensusInfo takes no height.
	FailHeights map[uint64]error
}

// NewFake returns an empty Fake ready to be populated.
func NewFake() *Fake {
	return &Fake{
		Blocks:             map[uint64]*BlockInfo{},
		Certs:              map[uint64]*BlockCertificates{},
		TxEvents:           map[uint64][]BlockItemSummary{},
		Items:              map[uint64][]BlockItem{},
		ChainParams:        map[uint64]*ChainParameters{},
		Tokenomics:         map[uint64]*TokenomicsInfo{},
		Special:            map[uint64][]SpecialEvent{},
		Bakers:             map[uint64][]uint64{},
		PoolInfos:          map[uint64]map[uint64]*PoolInfo{},
		RewardPeriodBakers: map[uint64][]RewardPeriodBakerInfo{},
		PassiveDelegators:  map[uint64]*PassiveDelegatorsRewardPeriod{},
		PassiveDelegation:  map[uint64]*PassiveDelegationInfo{},
		Elections:          map[uint64]*ElectionInfo{},
		Instances:          map[uint64]map[string]*InstanceInfo{},
		Modules:            map[string]*ModuleSource{},
		Cis0:               map[string]bool{},
		Accounts:           map[uint64][]string{},
		AccountInfo:        map[string]*AccountInfo{},
		FailHeights:        map[uint64]error{},
	}
}

func (f *Fake) failIfNeeded(height uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.FailHeights[height]; ok {
		return err
	}
	return nil
}

func (f *Fake) GetConsensusInfo(ctx context.Context) (*ConsensusInfo, error) {
	if f.Consensus == nil {
		return nil, errors.New("fake: no consensus info set")
	}
	return f.Consensus, nil
}

func (f *Fake) GetBlockInfo(ctx context.Context, height uint64) (*BlockInfo, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	b, ok := f.Blocks[height]
	if !ok {
		return nil, errors.Errorf("fake: no block info at height %d", height)
	}
	return b, nil
}

func (f *Fake) GetBlockCertificates(ctx context.Context, height uint64) (*BlockCertificates, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	if c, ok := f.Certs[height]; ok {
		return c, nil
	}
	return &BlockCertificates{}, nil
}

func (f *Fake) GetBlockTransactionEvents(ctx context.Context, height uint64) ([]BlockItemSummary, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	return f.TxEvents[height], nil
}

func (f *Fake) GetBlockItems(ctx context.Context, height uint64) ([]BlockItem, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	return f.Items[height], nil
}

func (f *Fake) GetBlockChainParameters(ctx context.Context, height uint64) (*ChainParameters, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	if cp, ok := f.ChainParams[height]; ok {
		return cp, nil
	}
	return &ChainParameters{}, nil
}

func (f *Fake) GetTokenomicsInfo(ctx context.Context, height uint64) (*TokenomicsInfo, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	if t, ok := f.Tokenomics[height]; ok {
		return t, nil
	}
	return &TokenomicsInfo{}, nil
}

func (f *Fake) GetBlockSpecialEvents(ctx context.Context, height uint64) ([]SpecialEvent, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	return f.Special[height], nil
}

func (f *Fake) GetBakerList(ctx context.Context, height uint64) ([]uint64, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	return f.Bakers[height], nil
}

func (f *Fake) GetPoolInfo(ctx context.Context, height, bakerID uint64) (*PoolInfo, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	if byHeight, ok := f.PoolInfos[height]; ok {
		if pi, ok := byHeight[bakerID]; ok {
			return pi, nil
		}
	}
	return &PoolInfo{BakerID: bakerID}, nil
}

func (f *Fake) GetBakersRewardPeriod(ctx context.Context, height uint64) ([]RewardPeriodBakerInfo, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	return f.RewardPeriodBakers[height], nil
}

func (f *Fake) GetPassiveDelegatorsRewardPeriod(ctx context.Context, height uint64) (*PassiveDelegatorsRewardPeriod, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	if p, ok := f.PassiveDelegators[height]; ok {
		return p, nil
	}
	return &PassiveDelegatorsRewardPeriod{}, nil
}

func (f *Fake) GetPassiveDelegationInfo(ctx context.Context, height uint64) (*PassiveDelegationInfo, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	if p, ok := f.PassiveDelegation[height]; ok {
		return p, nil
	}
	return &PassiveDelegationInfo{}, nil
}

func (f *Fake) GetElectionInfo(ctx context.Context, height uint64) (*ElectionInfo, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	if e, ok := f.Elections[height]; ok {
		return e, nil
	}
	return &ElectionInfo{}, nil
}

func (f *Fake) GetInstanceInfo(ctx context.Context, height, contractIndex, contractSubIndex uint64) (*InstanceInfo, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	key := contractAddrKey(contractIndex, contractSubIndex)
	if byHeight, ok := f.Instances[height]; ok {
		if ii, ok := byHeight[key]; ok {
			return ii, nil
		}
	}
	return nil, errors.Errorf("fake: no instance info for %s at height %d", key, height)
}

func (f *Fake) GetModuleSource(ctx context.Context, height uint64, moduleRef string) (*ModuleSource, error) {
	if m, ok := f.Modules[moduleRef]; ok {
		return m, nil
	}
	return nil, errors.Errorf("fake: no module source for %s", moduleRef)
}

func (f *Fake) CIS0Supports(ctx context.Context, height, contractIndex, contractSubIndex uint64, standard string) (bool, error) {
	key := contractAddrKey(contractIndex, contractSubIndex) + "/" + standard
	return f.Cis0[key], nil
}

func (f *Fake) GetAccountList(ctx context.Context, height uint64) ([]string, error) {
	if err := f.failIfNeeded(height); err != nil {
		return nil, err
	}
	return f.Accounts[height], nil
}

func (f *Fake) GetAccountInfo(ctx context.Context, height uint64, address string) (*AccountInfo, error) {
	if ai, ok := f.AccountInfo[address]; ok {
		return ai, nil
	}
	return nil, errors.Errorf("fake: no account info for %s", address)
}

func contractAddrKey(index, subIndex uint64) string {
	return itoa(index) + "," + itoa(subIndex)
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	digits := [20]byte{}
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	return string(digits[i:])
}

var _ QueriesClient = (*Fake)(nil)
