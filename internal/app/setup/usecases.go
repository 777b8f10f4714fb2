package setup

import (
	"fmt"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	usecase "github.com/LavaJover/shvark-escrow-service/internal/usecase/escrow"
)

type UseCases struct {
	EscrowUsecase *usecase.DefaultEscrowUsecase
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	escrowCfg := deps.Config.Escrow
	required := map[domain.Milestone][]string{}
	if len(escrowCfg.ShipmentDocuments) > 0 {
		required[domain.MilestoneShipmentConfirmed] = escrowCfg.ShipmentDocuments
	}
	if len(escrowCfg.DeliveryDocuments) > 0 {
		required[domain.MilestoneDeliveryConfirmed] = escrowCfg.DeliveryDocuments
	}

	escrowUsecase, err := usecase.NewDefaultEscrowUsecase(
		deps.Store,
		deps.Settlement,
		deps.Dispatcher,
		deps.Metrics,
		usecase.Options{
			SettlementTimeout: deps.Config.SettlementService.Timeout,
			RequiredDocuments: required,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("escrow usecase: %w", err)
	}

	return &UseCases{
		EscrowUsecase: escrowUsecase,
	}, nil
}
