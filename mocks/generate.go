package mocks

//go:generate mockgen -destination=./mock_control.go -package=mocks github.com/rxtech-lab/axon-client/internal/control ControlClient
//go:generate mockgen -destination=./mock_token.go -package=mocks github.com/rxtech-lab/axon-client/internal/identity TokenProvider
