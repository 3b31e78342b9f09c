//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
)

func initialize(ctx context.Context) (*Application, func(), error) {
	panic(wire.Build(Server))
}
