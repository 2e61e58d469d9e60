/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRequireNoErrorInChannel(t *testing.T) {
	ch := make(chan error, 1)

	ft := &fakeT{}
	RequireNoErrorInChannel(ft, ch)
	require.False(t, ft.failed)

	ch <- nil
	RequireNoErrorInChannel(ft, ch)
	require.False(t, ft.failed)

	ch <- errors.New("listen tcp: address already in use")
	RequireNoErrorInChannel(ft, ch)
	require.True(t, ft.failed)
}

func TestRequireErrorInChannel(t *testing.T) {
	ch := make(chan error, 1)
	wantErr := errors.New("unit failed")
	ch <- wantErr
	require.Equal(t, wantErr, RequireErrorInChannel(t, ch, time.Second))

	ft := &fakeT{}
	require.Nil(t, RequireErrorInChannel(ft, ch, 10*time.Millisecond))
	require.True(t, ft.failed)
}

func TestWaitListeningServer(t *testing.T) {
	addr := GetLocalAddrWithFreeTCPPort()
	require.Error(t, WaitListeningServer(addr, 50*time.Millisecond))

	l, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	defer func() { require.NoError(t, l.Close()) }()
	require.NoError(t, WaitListeningServer(addr, time.Second))
}
