package zookeeper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-zookeeper/zk"
)

const lockRoot = "/macaport/order_locks"

// DistributedLock serializes mutations on one resource (an order id) across
// service instances using the classic ZooKeeper sequential ephemeral node
// recipe: create a sequence node, and whoever owns the lowest sequence holds
// the lock; everyone else watches their predecessor.
type DistributedLock struct {
	conn     *Conn
	path     string
	lockNode string
}

// NewDistributedLock prepares a lock for resourceID. The lock root and the
// per-resource parent node are created lazily.
func NewDistributedLock(conn *Conn, resourceID string) (*DistributedLock, error) {
	if err := conn.ensurePath(lockRoot); err != nil {
		return nil, fmt.Errorf("ensure lock root: %w", err)
	}
	path := lockRoot + "/" + resourceID
	if err := conn.ensurePath(path); err != nil {
		return nil, fmt.Errorf("ensure lock path %s: %w", path, err)
	}
	return &DistributedLock{conn: conn, path: path}, nil
}

// Lock blocks until the lock is held or ctx is done.
func (l *DistributedLock) Lock(ctx context.Context) error {
	nodePath, err := l.conn.Create(l.path+"/lock-", []byte{}, zk.FlagEphemeral|zk.FlagSequence, zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("create sequential node: %w", err)
	}
	l.lockNode = nodePath

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return fmt.Errorf("list lock children: %w", err)
		}
		sort.Strings(children)

		mine := strings.TrimPrefix(l.lockNode, l.path+"/")
		if mine == children[0] {
			return nil
		}

		// Watch the node just ahead of ours; when it goes away we race
		// for the lock again.
		prev := -1
		for i, child := range children {
			if child == mine {
				prev = i - 1
				break
			}
		}
		if prev < 0 {
			return errors.New("own lock node missing from children")
		}

		exists, _, eventCh, err := l.conn.ExistsW(l.path + "/" + children[prev])
		if err != nil {
			return fmt.Errorf("watch predecessor: %w", err)
		}
		if !exists {
			continue
		}

		select {
		case <-eventCh:
		case <-ctx.Done():
			// Best effort cleanup of our queue position.
			_ = l.conn.Delete(l.lockNode, -1)
			l.lockNode = ""
			return ctx.Err()
		}
	}
}

// Unlock releases the lock. Unlocking an unheld lock is an error.
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock held")
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("delete lock node: %w", err)
	}
	l.lockNode = ""
	return nil
}
