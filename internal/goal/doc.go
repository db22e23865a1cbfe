// Package goal defines what a focused crawl is trying to find.
//
// A Goal turns fetched pages into scalar rewards for the value function
// and decides when a domain's objective is satisfied so its frontier slot
// can be closed. Reward must be a pure function of the response;
// per-domain bookkeeping happens only in ResponseObserved, which the
// controller calls exactly once per rewarded response.
//
// Two strategies are provided: KeywordGoal rewards pages containing
// configured keywords, TargetPageGoal rewards pages whose URL matches a
// target pattern. The controller depends only on the Goal interface.
package goal
