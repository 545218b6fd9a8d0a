// Package rundir manages the on-disk workspace of a training run: the
// result/<expname> directory tree, the resolved configuration written next
// to the checkpoints, the invocation record and the epoch_N.pth checkpoint
// naming the training engine relies on.
package rundir
