package accounts

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// TreeNode is one account with its child accounts nested beneath it.
type TreeNode struct {
	Response
	Children []TreeNode `json:"children,omitempty"`
}

var treeGroup singleflight.Group

// Tree builds the account hierarchy for one company. Concurrent requests
// for the same company share a single repository read.
func (s *Service) Tree(ctx context.Context, companyID uuid.UUID) ([]TreeNode, error) {
	resultChan := treeGroup.DoChan(companyID.String(), func() (interface{}, error) {
		accounts, err := s.repo.ListByCompany(ctx, companyID)
		if err != nil {
			return nil, err
		}
		return buildTree(accounts), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]TreeNode), nil
	}
}

func buildTree(accounts []Account) []TreeNode {
	children := make(map[uuid.UUID][]Account)
	var roots []Account
	for _, a := range accounts {
		// A dangling parent reference renders the account at the root
		// rather than dropping it from the tree.
		if a.ParentAccountID != nil {
			if _, ok := lookup(accounts, *a.ParentAccountID); ok {
				children[*a.ParentAccountID] = append(children[*a.ParentAccountID], a)
				continue
			}
		}
		roots = append(roots, a)
	}
	return buildNodes(roots, children)
}

func buildNodes(accounts []Account, children map[uuid.UUID][]Account) []TreeNode {
	nodes := make([]TreeNode, 0, len(accounts))
	for _, a := range accounts {
		nodes = append(nodes, TreeNode{
			Response: toResponse(a),
			Children: buildNodes(children[a.ID], children),
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Code < nodes[j].Code })
	return nodes
}

func lookup(accounts []Account, id uuid.UUID) (Account, bool) {
	for _, a := range accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}
