package zookeeper

import (
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn is a thin wrapper around a ZooKeeper connection so callers do not
// depend on the zk package directly.
type Conn struct {
	*zk.Conn
}

// Connect dials the ensemble. addrs is a comma separated "host:port" list.
func Connect(addrs string, sessionTimeout time.Duration) (*Conn, error) {
	conn, _, err := zk.Connect(strings.Split(addrs, ","), sessionTimeout)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}

// ensurePath creates the znode and any missing parents. Racing creators are
// fine; ErrNodeExists is not an error here.
func (c *Conn) ensurePath(path string) error {
	current := ""
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		current += "/" + segment
		exists, _, err := c.Exists(current)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		_, err = c.Create(current, []byte{}, 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return err
		}
	}
	return nil
}
