// Package mocks provides gomock implementations of the collaborator ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	profiles := mocks.NewMockProfiles(ctrl)
//	profiles.EXPECT().SetUsername(gomock.Any(), gomock.Any()).Return(p, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=profiles_mock.go github.com/target/onboard-ui/internal/ports Profiles
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=accounts_mock.go github.com/target/onboard-ui/internal/ports Accounts
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=image_processor_mock.go github.com/target/onboard-ui/internal/ports ImageProcessor
