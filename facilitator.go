package xrp402

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Facilitator routes verify and settle requests to the registered
// mechanism for the payment's (scheme, network) pair and runs the
// lifecycle hooks around each operation. It holds no per-request state;
// all mutation happens during setup.
type Facilitator struct {
	mu sync.RWMutex

	schemes map[Network]map[string]SchemeNetworkFacilitator
	extras  map[Network]map[string]interface{}

	extensions []string

	beforeVerifyHooks    []FacilitatorBeforeVerifyHook
	afterVerifyHooks     []FacilitatorAfterVerifyHook
	onVerifyFailureHooks []FacilitatorOnVerifyFailureHook
	beforeSettleHooks    []FacilitatorBeforeSettleHook
	afterSettleHooks     []FacilitatorAfterSettleHook
	onSettleFailureHooks []FacilitatorOnSettleFailureHook
}

func NewFacilitator() *Facilitator {
	return &Facilitator{
		schemes:    make(map[Network]map[string]SchemeNetworkFacilitator),
		extras:     make(map[Network]map[string]interface{}),
		extensions: []string{},
	}
}

// Register registers a mechanism for a network. The optional extra value
// overrides the mechanism's own GetExtra data in the supported response.
func (f *Facilitator) Register(network Network, mechanism SchemeNetworkFacilitator, extra ...interface{}) *Facilitator {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.schemes[network] == nil {
		f.schemes[network] = make(map[string]SchemeNetworkFacilitator)
	}
	f.schemes[network][mechanism.Scheme()] = mechanism

	if len(extra) > 0 {
		if f.extras[network] == nil {
			f.extras[network] = make(map[string]interface{})
		}
		f.extras[network][mechanism.Scheme()] = extra[0]
	}
	return f
}

// RegisterExtension registers a protocol extension identifier
func (f *Facilitator) RegisterExtension(extension string) *Facilitator {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ext := range f.extensions {
		if ext == extension {
			return f
		}
	}

	f.extensions = append(f.extensions, extension)
	return f
}

func (f *Facilitator) OnBeforeVerify(hook FacilitatorBeforeVerifyHook) *Facilitator {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beforeVerifyHooks = append(f.beforeVerifyHooks, hook)
	return f
}

func (f *Facilitator) OnAfterVerify(hook FacilitatorAfterVerifyHook) *Facilitator {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afterVerifyHooks = append(f.afterVerifyHooks, hook)
	return f
}

func (f *Facilitator) OnVerifyFailure(hook FacilitatorOnVerifyFailureHook) *Facilitator {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onVerifyFailureHooks = append(f.onVerifyFailureHooks, hook)
	return f
}

func (f *Facilitator) OnBeforeSettle(hook FacilitatorBeforeSettleHook) *Facilitator {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beforeSettleHooks = append(f.beforeSettleHooks, hook)
	return f
}

func (f *Facilitator) OnAfterSettle(hook FacilitatorAfterSettleHook) *Facilitator {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afterSettleHooks = append(f.afterSettleHooks, hook)
	return f
}

func (f *Facilitator) OnSettleFailure(hook FacilitatorOnSettleFailureHook) *Facilitator {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onSettleFailureHooks = append(f.onSettleFailureHooks, hook)
	return f
}

// Verify verifies a payment payload against requirements
func (f *Facilitator) Verify(ctx context.Context, payload PaymentPayload, requirements PaymentRequirements) (*VerifyResponse, error) {
	mechanism, err := f.lookup(requirements)
	if err != nil {
		return &VerifyResponse{IsValid: false, InvalidReason: ErrCodeUnsupportedScheme}, err
	}

	hookCtx := FacilitatorVerifyContext{
		Ctx:                 ctx,
		PaymentPayload:      payload,
		PaymentRequirements: requirements,
		Timestamp:           time.Now(),
	}
	for _, hook := range f.beforeVerifyHooks {
		result, err := hook(hookCtx)
		if err != nil {
			return &VerifyResponse{IsValid: false, InvalidReason: err.Error()}, err
		}
		if result != nil && result.Abort {
			return &VerifyResponse{IsValid: false, InvalidReason: result.Reason}, nil
		}
	}

	start := time.Now()
	result, verifyErr := mechanism.Verify(ctx, payload, requirements)

	if verifyErr != nil {
		failureCtx := FacilitatorVerifyFailureContext{
			FacilitatorVerifyContext: hookCtx,
			Error:                    verifyErr,
			Duration:                 time.Since(start),
		}
		for _, hook := range f.onVerifyFailureHooks {
			recovery, _ := hook(failureCtx)
			if recovery != nil && recovery.Recovered {
				return &recovery.Result, nil
			}
		}
		return result, verifyErr
	}

	resultCtx := FacilitatorVerifyResultContext{
		FacilitatorVerifyContext: hookCtx,
		Result:                   *result,
		Duration:                 time.Since(start),
	}
	for _, hook := range f.afterVerifyHooks {
		_ = hook(resultCtx)
	}

	return result, nil
}

// Settle settles a payment payload against requirements
func (f *Facilitator) Settle(ctx context.Context, payload PaymentPayload, requirements PaymentRequirements) (*SettleResponse, error) {
	mechanism, err := f.lookup(requirements)
	if err != nil {
		return &SettleResponse{Success: false, ErrorReason: ErrCodeUnsupportedScheme}, err
	}

	hookCtx := FacilitatorSettleContext{
		Ctx:                 ctx,
		PaymentPayload:      payload,
		PaymentRequirements: requirements,
		Timestamp:           time.Now(),
	}
	for _, hook := range f.beforeSettleHooks {
		result, err := hook(hookCtx)
		if err != nil {
			return &SettleResponse{Success: false, ErrorReason: err.Error()}, err
		}
		if result != nil && result.Abort {
			return &SettleResponse{Success: false, ErrorReason: result.Reason}, nil
		}
	}

	start := time.Now()
	result, settleErr := mechanism.Settle(ctx, payload, requirements)

	if settleErr != nil {
		failureCtx := FacilitatorSettleFailureContext{
			FacilitatorSettleContext: hookCtx,
			Error:                    settleErr,
			Duration:                 time.Since(start),
		}
		for _, hook := range f.onSettleFailureHooks {
			recovery, _ := hook(failureCtx)
			if recovery != nil && recovery.Recovered {
				return &recovery.Result, nil
			}
		}
		return result, settleErr
	}

	resultCtx := FacilitatorSettleResultContext{
		FacilitatorSettleContext: hookCtx,
		Result:                   *result,
		Duration:                 time.Since(start),
	}
	for _, hook := range f.afterSettleHooks {
		_ = hook(resultCtx)
	}

	return result, nil
}

// GetSupported returns the supported payment kinds. This is a pure
// configuration read: no pipeline code runs and no ledger is contacted.
func (f *Facilitator) GetSupported() SupportedResponse {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var kinds []SupportedKind

	for network, schemeMap := range f.schemes {
		for scheme, mechanism := range schemeMap {
			kind := SupportedKind{
				X402Version: 2,
				Scheme:      scheme,
				Network:     network,
			}
			if extra := f.extras[network][scheme]; extra != nil {
				if extraMap, ok := extra.(map[string]interface{}); ok {
					kind.Extra = extraMap
				}
			} else if extraMap := mechanism.GetExtra(network); extraMap != nil {
				kind.Extra = extraMap
			}
			kinds = append(kinds, kind)
		}
	}

	// Map iteration order is random; keep the response stable.
	sort.Slice(kinds, func(i, j int) bool {
		if kinds[i].Network != kinds[j].Network {
			return kinds[i].Network < kinds[j].Network
		}
		return kinds[i].Scheme < kinds[j].Scheme
	})

	return SupportedResponse{
		Kinds:      kinds,
		Extensions: f.extensions,
	}
}

// lookup finds the mechanism for the requirements' scheme and network,
// honoring wildcard network registrations such as "xrpl:*".
func (f *Facilitator) lookup(requirements PaymentRequirements) (SchemeNetworkFacilitator, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	network := requirements.Network

	schemeMap, ok := f.schemes[network]
	if !ok {
		for registered, m := range f.schemes {
			if network.Match(registered) {
				schemeMap = m
				break
			}
		}
	}
	if schemeMap == nil {
		return nil, fmt.Errorf("no facilitator for network %s", network)
	}

	mechanism := schemeMap[requirements.Scheme]
	if mechanism == nil {
		return nil, fmt.Errorf("no facilitator for %s on %s", requirements.Scheme, network)
	}

	return mechanism, nil
}
