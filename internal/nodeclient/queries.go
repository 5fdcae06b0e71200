package nodeclient

import (
	"context"

	"google.golang.org/grpc"
)

// QueriesClient is the subset of the Concordium node gRPC v2 Queries
// service used by the indexer (spec.md §6). It is an interface so
// preprocessor and pool tests can substitute a fake without a running
// node.
type QueriesClient interface {
	GetConsensusInfo(ctx context.Context) (*ConsensusInfo, error)
	GetBlockInfo(ctx context.Context, height uint64) (*BlockInfo, error)
	GetBlockCertificates(ctx context.Context, height uint64) (*BlockCertificates, error)
	GetBlockTransactionEvents(ctx context.Context, height uint64) ([]BlockItemSummary, error)
	GetBlockItems(ctx context.Context, height uint64) ([]BlockItem, error)
	GetBlockChainParameters(ctx context.Context, height uint64) (*ChainParameters, error)
	GetTokenomicsInfo(ctx context.Context, height uint64) (*TokenomicsInfo, error)
	GetBlockSpecialEvents(ctx context.Context, height uint64) ([]SpecialEvent, error)
	GetBakerList(ctx context.Context, height uint64) ([]uint64, error)
	GetPoolInfo(ctx context.Context, height uint64, bakerID uint64) (*PoolInfo, error)
	GetBakersRewardPeriod(ctx context.Context, height uint64) ([]RewardPeriodBakerInfo, error)
	GetPassiveDelegatorsRewardPeriod(ctx context.Context, height uint64) (*PassiveDelegatorsRewardPeriod, error)
	GetPassiveDelegationInfo(ctx context.Context, height uint64) (*PassiveDelegationInfo, error)
	GetElectionInfo(ctx context.Context, height uint64) (*ElectionInfo, error)
	GetInstanceInfo(ctx context.Context, height uint64, contractIndex, contractSubIndex uint64) (*InstanceInfo, error)
	GetModuleSource(ctx context.Context, height uint64, moduleRef string) (*ModuleSource, error)
	CIS0Supports(ctx context.Context, height uint64, contractIndex, contractSubIndex uint64, standard string) (bool, error)
	GetAccountList(ctx context.Context, height uint64) ([]string, error)
	GetAccountInfo(ctx context.Context, height uint64, address string) (*AccountInfo, error)
}

// grpcQueriesClient implements QueriesClient by issuing raw Invoke
// calls against a *grpc.ClientConn, using the json codec registered in
// codec.go. Method/path names mirror the node's v2 Queries service.
type grpcQueriesClient struct {
	cc *grpc.ClientConn
}

// NewQueriesClient wraps an established connection as a QueriesClient.
func NewQueriesClient(cc *grpc.ClientConn) QueriesClient {
	return &grpcQueriesClient{cc: cc}
}

const serviceFQN = "/concordium.v2.Queries/"

func (c *grpcQueriesClient) invoke(ctx context.Context, method string, req, resp interface{}) error {
	return c.cc.Invoke(ctx, serviceFQN+method, req, resp, grpc.CallContentSubtype(jsonCodec{}.Name()))
}

type heightReq struct{ Height uint64 }

func (c *grpcQueriesClient) GetConsensusInfo(ctx context.Context) (*ConsensusInfo, error) {
	out := &ConsensusInfo{}
	if err := c.invoke(ctx, "GetConsensusInfo", &struct{}{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *grpcQueriesClient) GetBlockInfo(ctx context.Context, height uint64) (*BlockInfo, error) {
	out := &BlockInfo{}
	if err := c.invoke(ctx, "GetBlockInfo", &heightReq{height}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *grpcQueriesClient) GetBlockCertificates(ctx context.Context, height uint64) (*BlockCertificates, error) {
	out := &BlockCertificates{}
	if err := c.invoke(ctx, "GetBlockCertificates", &heightReq{height}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *grpcQueriesClient) GetBlockTransactionEvents(ctx context.Context, height uint64) ([]BlockItemSummary, error) {
	var out []BlockItemSummary
	if err := c.invoke(ctx, "GetBlockTransactionEvents", &heightReq{height}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *grpcQueriesClient) GetBlockItems(ctx context.Context, height uint64) ([]BlockItem, error) {
	var out []BlockItem
	if err := c.invoke(ctx, "GetBlockItems", &heightReq{height}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *grpcQueriesClient) GetBlockChainParameters(ctx context.Context, height uint64) (*ChainParameters, error) {
	out := &ChainParameters{}
	if err := c.invoke(ctx, "GetBlockChainParameters", &heightReq{height}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *grpcQueriesClient) GetTokenomicsInfo(ctx context.Context, height uint64) (*TokenomicsInfo, error) {
	out := &TokenomicsInfo{}
	if err := c.invoke(ctx, "GetTokenomicsInfo", &heightReq{height}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *grpcQueriesClient) GetBlockSpecialEvents(ctx context.Context, height uint64) ([]SpecialEvent, error) {
	var out []SpecialEvent
	if err := c.invoke(ctx, "GetBlockSpecialEvents", &heightReq{height}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *grpcQueriesClient) GetBakerList(ctx context.Context, height uint64) ([]uint64, error) {
	var out []uint64
	if err := c.invoke(ctx, "GetBakerList", &heightReq{height}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type poolInfoReq struct {
	Height  uint64
	BakerID uint64
}

func (c *grpcQueriesClient) GetPoolInfo(ctx context.Context, height, bakerID uint64) (*PoolInfo, error) {
	out := &PoolInfo{}
	if err := c.invoke(ctx, "GetPoolInfo", &poolInfoReq{height, bakerID}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *grpcQueriesClient) GetBakersRewardPeriod(ctx context.Context, height uint64) ([]RewardPeriodBakerInfo, error) {
	var out []RewardPeriodBakerInfo
	if err := c.invoke(ctx, "GetBakersRewardPeriod", &heightReq{height}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *grpcQueriesClient) GetPassiveDelegatorsRewardPeriod(ctx context.Context, height uint64) (*PassiveDelegatorsRewardPeriod, error) {
	out := &PassiveDelegatorsRewardPeriod{}
	if err := c.invoke(ctx, "GetPassiveDelegatorsRewardPeriod", &heightReq{height}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *grpcQueriesClient) GetPassiveDelegationInfo(ctx context.Context, height uint64) (*PassiveDelegationInfo, error) {
	out := &PassiveDelegationInfo{}
	if err := c.invoke(ctx, "GetPassiveDelegationInfo", &heightReq{height}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *grpcQueriesClient) GetElectionInfo(ctx context.Context, height uint64) (*ElectionInfo, error) {
	out := &ElectionInfo{}
	if err := c.invoke(ctx, "GetElectionInfo", &heightReq{height}, out); err != nil {
		return nil, err
	}
	return out, nil
}

type instanceInfoReq struct {
	Height           uint64
	ContractIndex    uint64
	ContractSubIndex uint64
}

func (c *grpcQueriesClient) GetInstanceInfo(ctx context.Context, height, contractIndex, contractSubIndex uint64) (*InstanceInfo, error) {
	out := &InstanceInfo{}
	if err := c.invoke(ctx, "GetInstanceInfo", &instanceInfoReq{height, contractIndex, contractSubIndex}, out); err != nil {
		return nil, err
	}
	return out, nil
}

type moduleSourceReq struct {
	Height    uint64
	ModuleRef string
}

func (c *grpcQueriesClient) GetModuleSource(ctx context.Context, height uint64, moduleRef string) (*ModuleSource, error) {
	out := &ModuleSource{}
	if err := c.invoke(ctx, "GetModuleSource", &moduleSourceReq{height, moduleRef}, out); err != nil {
		return nil, err
	}
	return out, nil
}

type cis0SupportsReq struct {
	Height           uint64
	ContractIndex    uint64
	ContractSubIndex uint64
	Standard         string
}

func (c *grpcQueriesClient) CIS0Supports(ctx context.Context, height, contractIndex, contractSubIndex uint64, standard string) (bool, error) {
	var out struct{ Supported bool }
	if err := c.invoke(ctx, "Cis0Supports", &cis0SupportsReq{height, contractIndex, contractSubIndex, standard}, &out); err != nil {
		return false, err
	}
	return out.Supported, nil
}

func (c *grpcQueriesClient) GetAccountList(ctx context.Context, height uint64) ([]string, error) {
	var out []string
	if err := c.invoke(ctx, "GetAccountList", &heightReq{height}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type accountInfoReq struct {
	Height  uint64
	Address string
}

func (c *grpcQueriesClient) GetAccountInfo(ctx context.Context, height uint64, address string) (*AccountInfo, error) {
	out := &AccountInfo{}
	if err := c.invoke(ctx, "GetAccountInfo", &accountInfoReq{height, address}, out); err != nil {
		return nil, err
	}
	return out, nil
}
