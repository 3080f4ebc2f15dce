package services

import "github.com/devbridge/dev-bridge-manager/internal/remote"

var (
	_ remote.PrincipalSource = (*PrincipalService)(nil)
	_ remote.BoardRemote     = (*BoardService)(nil)
	_ remote.UserRemote      = (*UserService)(nil)
	_ remote.ProjectRemote   = (*ProjectService)(nil)
)
