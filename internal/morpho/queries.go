package morpho

const vaultDashboardQuery = `
  query VaultDashboard(
    $address: String!
    $chainId: Int!
    $startTimestamp: Int!
    $endTimestamp: Int!
    $interval: TimeseriesInterval!
    $riskStartTimestamp: Int!
    $riskEndTimestamp: Int!
  ) {
    vaultByAddress(address: $address, chainId: $chainId) {
      address
      name
      symbol
      chain {
        id
        network
      }
      state {
        timestamp
        totalAssetsUsd
        netApy
        fee
        allocation {
          supplyAssetsUsd
          market {
            uniqueKey
            lltv
            loanAsset {
              symbol
            }
            collateralAsset {
              symbol
            }
            state {
              utilization
              liquidityAssetsUsd
              supplyAssetsUsd
              netSupplyApy
              supplyApy
            }
            historicalState {
              utilizationRange: utilization(
                options: {
                  startTimestamp: $startTimestamp
                  endTimestamp: $endTimestamp
                  interval: $interval
                }
              ) {
                x
                y
              }
              supplyAssetsUsd(
                options: {
                  startTimestamp: $riskStartTimestamp
                  endTimestamp: $riskEndTimestamp
                  interval: DAY
                }
              ) {
                x
                y
              }
            }
          }
        }
      }
      liquidity {
        usd
      }
      historicalState {
        allocation {
          market {
            uniqueKey
          }
          supplyAssetsUsd {
            x
            y
          }
        }
        sharePriceUsd(
          options: {
            startTimestamp: $startTimestamp
            endTimestamp: $endTimestamp
            interval: $interval
          }
        ) {
          x
          y
        }
        netApy(
          options: {
            startTimestamp: $startTimestamp
            endTimestamp: $endTimestamp
            interval: $interval
          }
        ) {
          x
          y
        }
        totalAssetsUsd(
          options: {
            startTimestamp: $startTimestamp
            endTimestamp: $endTimestamp
            interval: $interval
          }
        ) {
          x
          y
        }
      }
    }
  }
`

const collateralAtRiskQuery = `
  query MarketCollateralAtRisk(
    $uniqueKey: String!
    $chainId: Int!
    $numberOfPoints: Float!
  ) {
    marketCollateralAtRisk(
      uniqueKey: $uniqueKey
      chainId: $chainId
      numberOfPoints: $numberOfPoints
    ) {
      market {
        uniqueKey
        loanAsset {
          symbol
        }
        collateralAsset {
          symbol
        }
      }
      collateralAtRisk {
        collateralPriceRatio
        collateralUsd
      }
    }
  }
`

const marketPositionsQuery = `
  query MarketPositions(
    $first: Int!
    $skip: Int!
    $marketKeys: [String!]!
    $chainIds: [Int!]
  ) {
    marketPositions(
      first: $first
      skip: $skip
      orderBy: BorrowShares
      orderDirection: Desc
      where: {
        marketUniqueKey_in: $marketKeys
        chainId_in: $chainIds
        borrowShares_gte: 1
      }
    ) {
      items {
        id
        healthFactor
        priceVariationToLiquidationPrice
        user {
          address
        }
        market {
          uniqueKey
          lltv
          loanAsset {
            symbol
          }
          collateralAsset {
            symbol
          }
        }
        state {
          borrowAssetsUsd
          collateralUsd
          marginUsd
        }
      }
      pageInfo {
        count
        countTotal
      }
    }
  }
`

const liquidationsQuery = `
  query Liquidations(
    $first: Int!
    $skip: Int!
    $marketKeys: [String!]!
    $chainIds: [Int!]
    $timestampGte: Int!
  ) {
    transactions(
      first: $first
      skip: $skip
      orderBy: Timestamp
      orderDirection: Desc
      where: {
        marketUniqueKey_in: $marketKeys
        chainId_in: $chainIds
        type_in: [MarketLiquidation]
        timestamp_gte: $timestampGte
      }
    ) {
      items {
        id
        timestamp
        hash
        data {
          ... on MarketLiquidationTransactionData {
            repaidAssetsUsd
            seizedAssetsUsd
            badDebtAssetsUsd
            market {
              uniqueKey
              loanAsset {
                symbol
              }
              collateralAsset {
                symbol
              }
            }
          }
        }
      }
      pageInfo {
        count
        countTotal
      }
    }
  }
`
