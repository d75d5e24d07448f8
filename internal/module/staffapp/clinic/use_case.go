package clinic

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type ClinicUseCase interface {
	GetManyClinic(ctx context.Context) (GetManyClinicResponse, error)
}

type clinicUseCase struct {
	logger           *logrus.Logger
	timeout          time.Duration
	clinicRepository ClinicRepository
}

type ClinicUseCaseProperty struct {
	Logger           *logrus.Logger
	Timeout          time.Duration
	ClinicRepository ClinicRepository
}

func NewClinicUseCase(props ClinicUseCaseProperty) ClinicUseCase {
	return &clinicUseCase{
		logger:           props.Logger,
		timeout:          props.Timeout,
		clinicRepository: props.ClinicRepository,
	}
}

// GetManyClinic implements ClinicUseCase.
func (u *clinicUseCase) GetManyClinic(ctx context.Context) (GetManyClinicResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	clinics, err := u.clinicRepository.FindManyActive(ctx, nil)
	if err != nil {
		return nil, err
	}

	resp := make(GetManyClinicResponse, len(clinics))
	for k, v := range clinics {
		resp[k].PopulateFromEntity(v)
	}

	return resp, nil
}
